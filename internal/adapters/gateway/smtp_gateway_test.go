package gateway

import (
	"bytes"
	"net/mail"
	"testing"

	"go.uber.org/zap"

	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/penta/llm-email-classifier/internal/utils"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ListenAddress:     "127.0.0.1:0",
		CategoryHeader:    "X-Email-Category",
		ConfidenceHeader:  "X-Email-Confidence",
		PriorityHeader:    "X-Email-Priority",
		ReviewHeader:      "X-Email-Review",
		TagSpamSubject:    true,
		SpamSubjectPrefix: "[SPAM] ",
	}
}

func newTestGateway(t *testing.T) *SMTPGateway {
	t.Helper()
	logger := zap.NewNop()
	service := core.NewClassificationService(nil, nil, nil, nil, logger, "anthropic", false, 0.7)
	return NewSMTPGateway(service, utils.NewTextProcessor(logger), logger, testServerConfig(), 8192)
}

func mustResult(t *testing.T, category core.Category, confidence float64) *core.ClassificationResult {
	t.Helper()
	result, err := core.NewClassificationResult(category, confidence, nil, "r", nil, "a", core.PriorityNormal)
	if err != nil {
		t.Fatalf("NewClassificationResult: %v", err)
	}
	return result
}

func TestAnnotate(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: Original subject\r\n\r\nbody\r\n")
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	g := newTestGateway(t)

	t.Run("stamps classification headers", func(t *testing.T) {
		out := g.annotate(raw, msg, mustResult(t, core.CategoryQuoteRequest, 0.92), nil)

		for _, want := range []string{
			"X-Email-Category: quote_request\r\n",
			"X-Email-Confidence: 0.9200\r\n",
			"X-Email-Priority: normal\r\n",
		} {
			if !bytes.Contains(out, []byte(want)) {
				t.Errorf("annotated message missing %q", want)
			}
		}
		if bytes.Contains(out, []byte("X-Email-Review")) {
			t.Error("confident result must not be marked for review")
		}
		if !bytes.Contains(out, []byte("Subject: Original subject")) {
			t.Error("original subject lost")
		}
	})

	t.Run("marks low confidence for review", func(t *testing.T) {
		out := g.annotate(raw, msg, mustResult(t, core.CategoryGeneralInquiry, 0.3), nil)
		if !bytes.Contains(out, []byte("X-Email-Review: needs-review\r\n")) {
			t.Error("review header missing")
		}
	})

	t.Run("tags spam subject", func(t *testing.T) {
		out := g.annotate(raw, msg, mustResult(t, core.CategorySpam, 0.95), nil)
		if !bytes.Contains(out, []byte("Subject: [SPAM] Original subject\r\n")) {
			t.Errorf("tagged subject missing from %q", out)
		}
		if bytes.Contains(out, []byte("Subject: Original subject")) {
			t.Error("original subject line should be removed when tagging")
		}
		if !bytes.Contains(out, []byte("body")) {
			t.Error("body lost")
		}
	})

	t.Run("does not double-tag spam subject", func(t *testing.T) {
		tagged := []byte("From: a@example.com\r\nSubject: [SPAM] Original subject\r\n\r\nbody\r\n")
		taggedMsg, err := mail.ReadMessage(bytes.NewReader(tagged))
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		out := g.annotate(tagged, taggedMsg, mustResult(t, core.CategorySpam, 0.95), nil)
		if bytes.Contains(out, []byte("[SPAM] [SPAM]")) {
			t.Errorf("subject tagged twice: %q", out)
		}
	})

	t.Run("records classification errors", func(t *testing.T) {
		cause := core.ErrUnknownCategory
		out := g.annotate(raw, msg, core.FallbackResult(cause), cause)
		if !bytes.Contains(out, []byte("X-Email-Classification-Error: ")) {
			t.Error("error header missing")
		}
		if !bytes.Contains(out, []byte("X-Email-Category: general_inquiry\r\n")) {
			t.Error("fallback category missing")
		}
	})
}

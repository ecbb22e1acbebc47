package gateway

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

func TestExtractTextFromMessage(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		msg := parseMessage(t, "From: a@example.com\r\nSubject: hi\r\n\r\nplain body\r\n")
		text, err := extractTextFromMessage(msg)
		if err != nil {
			t.Fatalf("extractTextFromMessage: %v", err)
		}
		if !strings.Contains(text, "plain body") {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("multipart prefers text/plain", func(t *testing.T) {
		raw := "From: a@example.com\r\n" +
			"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
			"\r\n" +
			"--BOUNDARY\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"the plain part\r\n" +
			"--BOUNDARY\r\n" +
			"Content-Type: text/html\r\n" +
			"\r\n" +
			"<p>the html part</p>\r\n" +
			"--BOUNDARY--\r\n"
		msg := parseMessage(t, raw)
		text, err := extractTextFromMessage(msg)
		if err != nil {
			t.Fatalf("extractTextFromMessage: %v", err)
		}
		if !strings.Contains(text, "the plain part") {
			t.Errorf("text = %q", text)
		}
		if strings.Contains(text, "html part") {
			t.Errorf("html part leaked into %q", text)
		}
	})

	t.Run("malformed content type falls back to raw body", func(t *testing.T) {
		msg := parseMessage(t, "Content-Type: multipart/mixed; bad\r\n\r\nraw body\r\n")
		text, err := extractTextFromMessage(msg)
		if err != nil {
			t.Fatalf("extractTextFromMessage: %v", err)
		}
		if !strings.Contains(text, "raw body") {
			t.Errorf("text = %q", text)
		}
	})
}

func TestDecodeEncodedHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain passthrough", "Hello there", "Hello there"},
		{"q-encoded utf-8", "=?UTF-8?Q?Caf=C3=A9_order?=", "Café order"},
		{"b-encoded utf-8", "=?UTF-8?B?UXVvdGUgcmVxdWVzdA==?=", "Quote request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEncodedHeader(tt.input)
			if err != nil {
				t.Fatalf("decodeEncodedHeader: %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeEncodedHeader(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitHeaderBody(t *testing.T) {
	t.Run("crlf message", func(t *testing.T) {
		header, body := splitHeaderBody([]byte("Subject: x\r\nFrom: a\r\n\r\nbody text"))
		if !bytes.Contains(header, []byte("Subject: x")) {
			t.Errorf("header = %q", header)
		}
		if string(body) != "body text" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("lf message", func(t *testing.T) {
		header, body := splitHeaderBody([]byte("Subject: x\n\nbody text"))
		if !bytes.Contains(header, []byte("Subject: x")) {
			t.Errorf("header = %q", header)
		}
		if string(body) != "body text" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("headers only", func(t *testing.T) {
		header, body := splitHeaderBody([]byte("Subject: x"))
		if string(header) != "Subject: x" || body != nil {
			t.Errorf("header = %q, body = %q", header, body)
		}
	})
}

func TestRemoveHeaderLine(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: original\r\n continued\r\nTo: b@example.com\r\n\r\nbody")
	out := removeHeaderLine(raw, "Subject")

	if bytes.Contains(out, []byte("original")) {
		t.Errorf("subject line survived: %q", out)
	}
	if bytes.Contains(out, []byte("continued")) {
		t.Errorf("continuation line survived: %q", out)
	}
	if !bytes.Contains(out, []byte("From: a@example.com")) || !bytes.Contains(out, []byte("To: b@example.com")) {
		t.Errorf("unrelated headers lost: %q", out)
	}
	if !bytes.Contains(out, []byte("body")) {
		t.Errorf("body lost: %q", out)
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubLLM struct {
	completeResp  *CompletionResponse
	completeErr   error
	continueResp  *CompletionResponse
	continueErr   error
	completeCalls int
	continueCalls int
	lastRequest   *CompletionRequest
	lastOutcomes  []ToolOutcome
}

func (s *stubLLM) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	s.completeCalls++
	s.lastRequest = req
	return s.completeResp, s.completeErr
}

func (s *stubLLM) ContinueWithToolResults(ctx context.Context, req *CompletionRequest, prev *CompletionResponse, outcomes []ToolOutcome) (*CompletionResponse, error) {
	s.continueCalls++
	s.lastOutcomes = outcomes
	return s.continueResp, s.continueErr
}

func (s *stubLLM) Model() string { return "stub-model" }

type stubKnowledge struct {
	retrieval *RetrievalContext
	history   []HistoryEntry
	queries   []QueryEntry
	stats     KnowledgeStats
}

func (s *stubKnowledge) Context(ctx context.Context, emailText string) *RetrievalContext {
	if s.retrieval != nil {
		return s.retrieval
	}
	return &RetrievalContext{}
}

func (s *stubKnowledge) AddHistory(ctx context.Context, entry HistoryEntry) error {
	s.history = append(s.history, entry)
	return nil
}

func (s *stubKnowledge) AddCommonQuery(ctx context.Context, entry QueryEntry) error {
	s.queries = append(s.queries, entry)
	return nil
}

func (s *stubKnowledge) Stats(ctx context.Context) (KnowledgeStats, error) {
	return s.stats, nil
}

type stubTools struct {
	specs   []ToolSpec
	execute func(name string, args map[string]interface{}) (interface{}, error)
}

func (s *stubTools) Specs() []ToolSpec { return s.specs }

func (s *stubTools) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	if s.execute != nil {
		return s.execute(name, args)
	}
	return nil, fmt.Errorf("tool not found: %s", name)
}

func (s *stubTools) Count() int { return len(s.specs) }

type stubFeedbackLog struct {
	entries []FeedbackEntry
	err     error
}

func (s *stubFeedbackLog) Append(ctx context.Context, entry FeedbackEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func newTestService(llm *stubLLM, kb *stubKnowledge, tools *stubTools, log *stubFeedbackLog, learning bool) *ClassificationService {
	return NewClassificationService(llm, kb, tools, log, zap.NewNop(), "anthropic", learning, 0.7)
}

func quoteResponse() *CompletionResponse {
	return &CompletionResponse{
		Text: "```json\n" + `{
			"primary_category": "quote_request",
			"confidence": 0.92,
			"reasoning": "Pricing request for a specific quantity",
			"recommended_action": "Route to sales",
			"priority": "high"
		}` + "\n```",
		ModelUsed: "stub-model",
	}
}

func TestClassify(t *testing.T) {
	email := NewEmail("Need a quote", "Please quote 500 kg of citric acid.", "buyer@example.com")

	t.Run("happy path", func(t *testing.T) {
		llm := &stubLLM{completeResp: quoteResponse()}
		kb := &stubKnowledge{}
		svc := newTestService(llm, kb, &stubTools{}, &stubFeedbackLog{}, true)

		result, err := svc.Classify(context.Background(), email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.PrimaryCategory != CategoryQuoteRequest {
			t.Errorf("primary = %q, want quote_request", result.PrimaryCategory)
		}
		if result.Confidence != 0.92 {
			t.Errorf("confidence = %v, want 0.92", result.Confidence)
		}
		if result.ProcessingID == "" {
			t.Error("processing ID not set")
		}
		if result.ModelUsed != "stub-model" {
			t.Errorf("model used = %q", result.ModelUsed)
		}
		if llm.completeCalls != 1 || llm.continueCalls != 0 {
			t.Errorf("calls = %d complete, %d continue", llm.completeCalls, llm.continueCalls)
		}
		if llm.lastRequest.UserPrompt == "" || llm.lastRequest.SystemPrompt == "" {
			t.Error("prompts not populated")
		}
		if len(kb.history) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(kb.history))
		}
		if kb.history[0].EmailID != email.ID() {
			t.Errorf("history keyed by %q, want %q", kb.history[0].EmailID, email.ID())
		}
	})

	t.Run("prose reply falls back without error", func(t *testing.T) {
		llm := &stubLLM{completeResp: &CompletionResponse{Text: "I am not sure.", ModelUsed: "stub-model"}}
		svc := newTestService(llm, &stubKnowledge{}, &stubTools{}, &stubFeedbackLog{}, false)

		result, err := svc.Classify(context.Background(), email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.PrimaryCategory != CategoryGeneralInquiry || result.Confidence != 0.3 {
			t.Errorf("expected fallback, got %q/%v", result.PrimaryCategory, result.Confidence)
		}
	})

	t.Run("backend error propagates", func(t *testing.T) {
		llm := &stubLLM{completeErr: errors.New("connection refused")}
		svc := newTestService(llm, &stubKnowledge{}, &stubTools{}, &stubFeedbackLog{}, false)

		_, err := svc.Classify(context.Background(), email)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "llm completion failed") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("single tool round", func(t *testing.T) {
		llm := &stubLLM{
			completeResp: &CompletionResponse{
				ToolCalls: []ToolCall{
					{ID: "t1", Name: "lookup_order", Arguments: map[string]interface{}{"order_id": "12345"}},
					{ID: "t2", Name: "no_such_tool"},
				},
				ModelUsed: "stub-model",
			},
			continueResp: quoteResponse(),
		}
		tools := &stubTools{
			execute: func(name string, args map[string]interface{}) (interface{}, error) {
				if name == "lookup_order" {
					return map[string]interface{}{"status": "shipped"}, nil
				}
				return nil, fmt.Errorf("tool not found: %s", name)
			},
		}
		svc := newTestService(llm, &stubKnowledge{}, tools, &stubFeedbackLog{}, false)

		result, err := svc.Classify(context.Background(), email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.PrimaryCategory != CategoryQuoteRequest {
			t.Errorf("primary = %q", result.PrimaryCategory)
		}
		if llm.continueCalls != 1 {
			t.Fatalf("continue calls = %d, want 1", llm.continueCalls)
		}
		if len(llm.lastOutcomes) != 2 {
			t.Fatalf("outcomes = %d, want 2", len(llm.lastOutcomes))
		}
		// Unknown tool names become error-shaped results, not aborts.
		errResult, ok := llm.lastOutcomes[1].Result.(map[string]interface{})
		if !ok || errResult["tool"] != "no_such_tool" || errResult["error"] == nil {
			t.Errorf("unknown tool outcome = %#v", llm.lastOutcomes[1].Result)
		}
	})

	t.Run("learning disabled records nothing", func(t *testing.T) {
		kb := &stubKnowledge{}
		svc := newTestService(&stubLLM{completeResp: quoteResponse()}, kb, &stubTools{}, &stubFeedbackLog{}, false)

		if _, err := svc.Classify(context.Background(), email); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kb.history) != 0 {
			t.Errorf("history entries = %d, want 0", len(kb.history))
		}
	})
}

func TestProvideFeedback(t *testing.T) {
	email := NewEmail("Invoice question", "Why was I charged twice?", "buyer@example.com")

	t.Run("correction writes log, history and query exemplar", func(t *testing.T) {
		kb := &stubKnowledge{}
		log := &stubFeedbackLog{}
		svc := newTestService(&stubLLM{}, kb, &stubTools{}, log, true)

		err := svc.ProvideFeedback(context.Background(), email, CategoryGeneralInquiry, CategoryBillingInquiry, 0.55, "double charge")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(log.entries) != 1 {
			t.Fatalf("feedback entries = %d, want 1", len(log.entries))
		}
		entry := log.entries[0]
		if entry.OriginalCategory != CategoryGeneralInquiry || entry.CorrectCategory != CategoryBillingInquiry {
			t.Errorf("entry categories = %q -> %q", entry.OriginalCategory, entry.CorrectCategory)
		}

		if len(kb.history) != 1 {
			t.Fatalf("history entries = %d, want 1", len(kb.history))
		}
		h := kb.history[0]
		if h.EmailID != email.ID()+"_corrected" {
			t.Errorf("history ID = %q", h.EmailID)
		}
		if h.Confidence != 1.0 || h.WasCorrect == nil || !*h.WasCorrect {
			t.Errorf("corrected history = %+v", h)
		}

		if len(kb.queries) != 1 {
			t.Fatalf("query entries = %d, want 1", len(kb.queries))
		}
		q := kb.queries[0]
		if q.QueryID != "feedback_"+email.ID() || q.Category != CategoryBillingInquiry {
			t.Errorf("query exemplar = %+v", q)
		}
	})

	t.Run("confirmation skips the query exemplar", func(t *testing.T) {
		kb := &stubKnowledge{}
		svc := newTestService(&stubLLM{}, kb, &stubTools{}, &stubFeedbackLog{}, true)

		err := svc.ProvideFeedback(context.Background(), email, CategoryBillingInquiry, CategoryBillingInquiry, 0.9, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kb.history) != 1 {
			t.Errorf("history entries = %d, want 1", len(kb.history))
		}
		if len(kb.queries) != 0 {
			t.Errorf("query entries = %d, want 0", len(kb.queries))
		}
	})

	t.Run("no-op when learning is disabled", func(t *testing.T) {
		kb := &stubKnowledge{}
		log := &stubFeedbackLog{}
		svc := newTestService(&stubLLM{}, kb, &stubTools{}, log, false)

		err := svc.ProvideFeedback(context.Background(), email, CategoryGeneralInquiry, CategorySpam, 0.2, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(log.entries) != 0 || len(kb.history) != 0 || len(kb.queries) != 0 {
			t.Error("disabled learning must not write anywhere")
		}
	})
}

func TestNeedsReview(t *testing.T) {
	svc := newTestService(&stubLLM{}, &stubKnowledge{}, &stubTools{}, &stubFeedbackLog{}, false)

	low, _ := NewClassificationResult(CategorySpam, 0.3, nil, "", nil, "", "")
	high, _ := NewClassificationResult(CategorySpam, 0.7, nil, "", nil, "", "")
	if !svc.NeedsReview(low) {
		t.Error("0.3 should need review at threshold 0.7")
	}
	if svc.NeedsReview(high) {
		t.Error("0.7 should not need review at threshold 0.7")
	}
}

func TestStats(t *testing.T) {
	kb := &stubKnowledge{stats: KnowledgeStats{TotalProducts: 3, TotalQueries: 2, TotalHistory: 5}}
	tools := &stubTools{specs: []ToolSpec{{Name: "a"}, {Name: "b"}}}
	svc := newTestService(&stubLLM{}, kb, tools, &stubFeedbackLog{}, true)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.LLMProvider != "anthropic" || stats.Model != "stub-model" {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ToolsRegistered != 2 || !stats.LearningEnabled {
		t.Errorf("stats = %+v", stats)
	}
	if stats.KnowledgeBase.TotalHistory != 5 {
		t.Errorf("kb stats = %+v", stats.KnowledgeBase)
	}
}

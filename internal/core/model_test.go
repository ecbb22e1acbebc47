package core

import (
	"testing"
	"time"
)

func TestEmailID(t *testing.T) {
	received := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	base := &Email{
		Subject:    "Quote for citric acid",
		Body:       "Please quote 500 kg of citric acid anhydrous.",
		Sender:     "buyer@example.com",
		ReceivedAt: received,
	}

	id := base.ID()
	if len(id) != 32 {
		t.Fatalf("expected 32-char hex ID, got %q", id)
	}
	if base.ID() != id {
		t.Error("ID is not stable across calls")
	}

	variants := []struct {
		name  string
		email Email
	}{
		{"different subject", Email{Subject: "x", Body: base.Body, Sender: base.Sender, ReceivedAt: received}},
		{"different body", Email{Subject: base.Subject, Body: "x", Sender: base.Sender, ReceivedAt: received}},
		{"different sender", Email{Subject: base.Subject, Body: base.Body, Sender: "x", ReceivedAt: received}},
		{"different time", Email{Subject: base.Subject, Body: base.Body, Sender: base.Sender, ReceivedAt: received.Add(time.Nanosecond)}},
	}
	for _, tt := range variants {
		if tt.email.ID() == id {
			t.Errorf("%s produced the same ID", tt.name)
		}
	}

	// Timezone must not matter when the instant is the same.
	shifted := *base
	shifted.ReceivedAt = received.In(time.FixedZone("CET", 3600))
	if shifted.ID() != id {
		t.Error("equivalent instants in different zones produced different IDs")
	}
}

func TestEmailContent(t *testing.T) {
	e := &Email{Subject: "Order status", Body: "Where is order 12345?"}
	want := "Order status Where is order 12345?"
	if got := e.Content(); got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
}

func TestNewClassificationResult(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{"valid mid", 0.5, false},
		{"lower bound", 0.0, false},
		{"upper bound", 1.0, false},
		{"negative", -0.1, true},
		{"above one", 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewClassificationResult(
				CategoryQuoteRequest, tt.confidence, nil, "reasoning", nil, "action", "")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for out-of-range confidence")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.SecondaryCategories == nil {
				t.Error("secondary categories not defaulted to empty slice")
			}
			if result.ExtractedEntities == nil {
				t.Error("extracted entities not defaulted to empty map")
			}
			if result.Priority != PriorityNormal {
				t.Errorf("empty priority not defaulted, got %q", result.Priority)
			}
			if result.Timestamp.IsZero() {
				t.Error("timestamp not set")
			}
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		input string
		want  Priority
	}{
		{"low", PriorityLow},
		{"normal", PriorityNormal},
		{"high", PriorityHigh},
		{"urgent", PriorityUrgent},
		{"URGENT", PriorityNormal},
		{"critical", PriorityNormal},
		{"", PriorityNormal},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.input); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRetrievalContextEmpty(t *testing.T) {
	var nilCtx *RetrievalContext
	if !nilCtx.Empty() {
		t.Error("nil context should be empty")
	}
	if !(&RetrievalContext{}).Empty() {
		t.Error("zero context should be empty")
	}
	populated := &RetrievalContext{
		RelevantProducts: []RetrievedRecord{{Document: "citric acid"}},
	}
	if populated.Empty() {
		t.Error("context with products should not be empty")
	}
}

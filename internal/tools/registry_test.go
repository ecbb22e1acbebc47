package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/penta/llm-email-classifier/internal/core"
)

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{
		Name: "echo",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args["value"], nil
		},
	})
	r.Register(Definition{
		Name: "failing",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
	})
	r.Register(Definition{
		Name: "panicking",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			panic("boom")
		},
	})

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		out, err := r.Execute(ctx, "echo", map[string]interface{}{"value": 42})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != 42 {
			t.Errorf("out = %v, want 42", out)
		}
	})

	t.Run("unknown name returns error", func(t *testing.T) {
		_, err := r.Execute(ctx, "missing", nil)
		if !errors.Is(err, ErrToolNotFound) {
			t.Errorf("error = %v, want ErrToolNotFound", err)
		}
	})

	t.Run("handler error becomes error-shaped result", func(t *testing.T) {
		out, err := r.Execute(ctx, "failing", nil)
		if err != nil {
			t.Fatalf("handler errors must not propagate: %v", err)
		}
		m, ok := out.(map[string]interface{})
		if !ok || m["tool"] != "failing" || m["error"] != "backend unavailable" {
			t.Errorf("out = %#v", out)
		}
	})

	t.Run("handler panic becomes error-shaped result", func(t *testing.T) {
		out, err := r.Execute(ctx, "panicking", nil)
		if err != nil {
			t.Fatalf("handler panics must not propagate: %v", err)
		}
		m, ok := out.(map[string]interface{})
		if !ok || m["tool"] != "panicking" {
			t.Errorf("out = %#v", out)
		}
	})
}

func TestRegistryRegisterOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(Definition{Name: "a", Description: "first"})
	r.Register(Definition{Name: "b", Description: "second"})
	r.Register(Definition{Name: "a", Description: "replaced"})

	if r.Count() != 2 {
		t.Fatalf("count = %d, want 2", r.Count())
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, registration order must survive overwrite", names)
	}

	specs := r.Specs()
	if specs[0].Description != "replaced" {
		t.Errorf("overwrite not applied: %q", specs[0].Description)
	}
}

func TestVendorSerializations(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
		"required": []string{"query"},
	}
	r := NewRegistry()
	r.Register(Definition{Name: "search", Description: "Search things", InputSchema: schema})

	t.Run("anthropic flat form", func(t *testing.T) {
		out := r.ForAnthropic()
		if len(out) != 1 {
			t.Fatalf("len = %d", len(out))
		}
		tool := out[0]
		if tool["name"] != "search" || tool["description"] != "Search things" {
			t.Errorf("tool = %#v", tool)
		}
		if _, ok := tool["input_schema"]; !ok {
			t.Error("flat form must use input_schema")
		}
		if _, ok := tool["function"]; ok {
			t.Error("flat form must not nest under function")
		}
	})

	t.Run("openai nested form", func(t *testing.T) {
		out := r.ForOpenAI()
		if len(out) != 1 {
			t.Fatalf("len = %d", len(out))
		}
		tool := out[0]
		if tool["type"] != "function" {
			t.Errorf("type = %v", tool["type"])
		}
		fn, ok := tool["function"].(map[string]interface{})
		if !ok {
			t.Fatalf("function = %#v", tool["function"])
		}
		if fn["name"] != "search" {
			t.Errorf("function name = %v", fn["name"])
		}
		if _, ok := fn["parameters"]; !ok {
			t.Error("nested form must use parameters")
		}
	})
}

type fakeStore struct {
	lastQuery string
	retrieval *core.RetrievalContext
}

func (f *fakeStore) Context(ctx context.Context, emailText string) *core.RetrievalContext {
	f.lastQuery = emailText
	if f.retrieval != nil {
		return f.retrieval
	}
	return &core.RetrievalContext{}
}

func (f *fakeStore) AddHistory(ctx context.Context, entry core.HistoryEntry) error { return nil }

func (f *fakeStore) AddCommonQuery(ctx context.Context, entry core.QueryEntry) error { return nil }

func (f *fakeStore) Stats(ctx context.Context) (core.KnowledgeStats, error) {
	return core.KnowledgeStats{}, nil
}

func TestDefaultRegistry(t *testing.T) {
	store := &fakeStore{
		retrieval: &core.RetrievalContext{
			RelevantProducts: []core.RetrievedRecord{
				{Document: "Citric Acid: food grade acidulant", Metadata: map[string]interface{}{"name": "Citric Acid"}},
			},
		},
	}
	r := NewDefaultRegistry(store)

	want := []string{"lookup_order", "check_product_availability", "get_shipping_quote", "search_knowledge_base"}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}

	ctx := context.Background()

	t.Run("search_knowledge_base queries the store", func(t *testing.T) {
		out, err := r.Execute(ctx, "search_knowledge_base", map[string]interface{}{"query": "citric acid"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.lastQuery != "citric acid" {
			t.Errorf("store queried with %q", store.lastQuery)
		}
		m := out.(map[string]interface{})
		results := m["results"].([]interface{})
		if len(results) != 1 {
			t.Fatalf("results = %#v", results)
		}
	})

	t.Run("search with nil store degrades to empty results", func(t *testing.T) {
		out, err := NewDefaultRegistry(nil).Execute(ctx, "search_knowledge_base", map[string]interface{}{"query": "anything"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := out.(map[string]interface{})
		if len(m["results"].([]interface{})) != 0 {
			t.Errorf("results = %#v", m["results"])
		}
	})

	t.Run("placeholder tools echo their arguments", func(t *testing.T) {
		out, err := r.Execute(ctx, "lookup_order", map[string]interface{}{"order_id": "12345"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := out.(map[string]interface{})
		if m["order_id"] != "12345" {
			t.Errorf("out = %#v", m)
		}
	})
}

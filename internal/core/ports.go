package core

import (
	"context"
)

// ToolSpec describes a callable tool in a vendor-neutral form
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolCall is a model-initiated request to execute a named tool
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolOutcome carries one executed tool call back into the conversation.
// Result is always populated; tool failures arrive as error-shaped results,
// never as Go errors (a misbehaving tool must not abort classification).
type ToolOutcome struct {
	Call   ToolCall
	Result interface{}
}

// CompletionRequest is a single prompt dispatched to an LLM backend
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Tools        []ToolSpec
}

// CompletionResponse is the backend's reply: text, zero or more requested
// tool calls, and an opaque vendor turn used to continue the conversation.
type CompletionResponse struct {
	Text      string
	ToolCalls []ToolCall
	ModelUsed string

	// vendorTurn holds whatever the adapter needs to append the assistant
	// turn when tool results are sent back. Opaque outside the adapter.
	vendorTurn interface{}
}

// VendorTurn returns the adapter-private conversation state
func (r *CompletionResponse) VendorTurn() interface{} { return r.vendorTurn }

// SetVendorTurn stores the adapter-private conversation state
func (r *CompletionResponse) SetVendorTurn(v interface{}) { r.vendorTurn = v }

// LLMClient defines the interface for the two interchangeable model backends.
// The pipeline is written once against this port; vendor branching lives in
// the adapters.
type LLMClient interface {
	// Complete performs the initial blocking completion call
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// ContinueWithToolResults issues exactly one follow-up call carrying the
	// prior conversation plus executed tool results
	ContinueWithToolResults(ctx context.Context, req *CompletionRequest, prev *CompletionResponse, outcomes []ToolOutcome) (*CompletionResponse, error)

	// Model returns the configured model name
	Model() string
}

// ToolProvider defines the interface the pipeline uses to resolve tool calls
type ToolProvider interface {
	// Specs returns the registered tool definitions in a vendor-neutral form
	Specs() []ToolSpec

	// Execute runs a tool by name. Handler failures are absorbed into an
	// error-shaped result; only an unregistered name yields a Go error.
	Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error)

	// Count returns the number of registered tools
	Count() int
}

// HistoryEntry is a past classification written back for future retrieval
type HistoryEntry struct {
	EmailID      string
	EmailContent string
	Category     Category
	Confidence   float64
	WasCorrect   *bool
	Metadata     map[string]interface{}
}

// QueryEntry is a query→label exemplar stored for future retrieval
type QueryEntry struct {
	QueryID    string
	QueryText  string
	Category   Category
	Confidence float64
	Metadata   map[string]interface{}
}

// KnowledgeStore defines the interface for the retrieval-augmented context
// store. Search failures inside implementations degrade to empty results.
type KnowledgeStore interface {
	// Context retrieves similar queries, relevant products and similar
	// history for the given email text
	Context(ctx context.Context, emailText string) *RetrievalContext

	// AddHistory appends a classification outcome to the history collection
	AddHistory(ctx context.Context, entry HistoryEntry) error

	// AddCommonQuery appends a query exemplar to the common-queries collection
	AddCommonQuery(ctx context.Context, entry QueryEntry) error

	// Stats returns element counts per collection
	Stats(ctx context.Context) (KnowledgeStats, error)
}

// FeedbackLog defines the interface for the durable feedback log
type FeedbackLog interface {
	// Append persists a feedback entry
	Append(ctx context.Context, entry FeedbackEntry) error
}

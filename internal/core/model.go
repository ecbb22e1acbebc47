package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Priority is the handling priority suggested for a classified email
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority maps a free-form priority string onto the closed set,
// defaulting to normal for anything unrecognized.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s)
	default:
		return PriorityNormal
	}
}

// Email represents an inbound customer-service email
type Email struct {
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Sender     string            `json:"sender,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewEmail creates an email, stamping ReceivedAt with the current time
func NewEmail(subject, body, sender string) *Email {
	return &Email{
		Subject:    subject,
		Body:       body,
		Sender:     sender,
		ReceivedAt: time.Now(),
	}
}

// ID derives a stable content hash used as the deduplication and history key.
// Any change to subject, body, sender or receive time changes the ID.
func (e *Email) ID() string {
	content := fmt.Sprintf("%s%s%s%s", e.Subject, e.Body, e.Sender, e.ReceivedAt.UTC().Format(time.RFC3339Nano))
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Content returns the text submitted to retrieval and classification
func (e *Email) Content() string {
	return e.Subject + " " + e.Body
}

// ErrInvalidConfidence is returned when a confidence score falls outside [0, 1]
var ErrInvalidConfidence = fmt.Errorf("confidence must be within [0, 1]")

// ClassificationResult is the structured outcome of classifying one email
type ClassificationResult struct {
	PrimaryCategory     Category               `json:"primary_category"`
	Confidence          float64                `json:"confidence"`
	SecondaryCategories []Category             `json:"secondary_categories"`
	Reasoning           string                 `json:"reasoning"`
	ExtractedEntities   map[string]interface{} `json:"extracted_entities"`
	RecommendedAction   string                 `json:"recommended_action"`
	Priority            Priority               `json:"priority"`
	Timestamp           time.Time              `json:"timestamp"`
	ProcessingID        string                 `json:"processing_id,omitempty"`
	ModelUsed           string                 `json:"model_used,omitempty"`
}

// NewClassificationResult constructs a result, rejecting out-of-range confidence
func NewClassificationResult(
	primary Category,
	confidence float64,
	secondary []Category,
	reasoning string,
	entities map[string]interface{},
	action string,
	priority Priority,
) (*ClassificationResult, error) {
	if confidence < 0.0 || confidence > 1.0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfidence, confidence)
	}
	if secondary == nil {
		secondary = []Category{}
	}
	if entities == nil {
		entities = map[string]interface{}{}
	}
	if priority == "" {
		priority = PriorityNormal
	}
	return &ClassificationResult{
		PrimaryCategory:     primary,
		Confidence:          confidence,
		SecondaryCategories: secondary,
		Reasoning:           reasoning,
		ExtractedEntities:   entities,
		RecommendedAction:   action,
		Priority:            priority,
		Timestamp:           time.Now(),
	}, nil
}

// FeedbackEntry records a human correction to a previous classification
type FeedbackEntry struct {
	EmailID           string    `json:"email_id"`
	OriginalCategory  Category  `json:"original_classification"`
	CorrectCategory   Category  `json:"correct_classification"`
	Confidence        float64   `json:"confidence"`
	EmailContent      string    `json:"email_content"`
	Notes             string    `json:"notes,omitempty"`
	FeedbackTimestamp time.Time `json:"feedback_timestamp"`
}

// RetrievedRecord is a single nearest-neighbor hit from the knowledge base
type RetrievedRecord struct {
	Document string
	Metadata map[string]interface{}
	Distance float64
}

// RetrievalContext groups the per-collection retrieval results used to
// ground a classification prompt
type RetrievalContext struct {
	SimilarQueries   []RetrievedRecord
	RelevantProducts []RetrievedRecord
	SimilarHistory   []RetrievedRecord
}

// Empty reports whether retrieval produced nothing usable
func (c *RetrievalContext) Empty() bool {
	return c == nil ||
		(len(c.SimilarQueries) == 0 && len(c.RelevantProducts) == 0 && len(c.SimilarHistory) == 0)
}

// KnowledgeStats holds per-collection element counts
type KnowledgeStats struct {
	TotalProducts int `json:"total_products"`
	TotalQueries  int `json:"total_queries"`
	TotalHistory  int `json:"total_history"`
}

// AgentStats summarizes the running agent for operators
type AgentStats struct {
	LLMProvider     string         `json:"llm_provider"`
	Model           string         `json:"model"`
	KnowledgeBase   KnowledgeStats `json:"knowledge_base"`
	ToolsRegistered int            `json:"tools_registered"`
	LearningEnabled bool           `json:"learning_enabled"`
}

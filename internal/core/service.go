package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClassificationService orchestrates the classification pipeline: retrieval
// context, prompt construction, one backend call, at most one round of tool
// resolution, response parsing with guaranteed fallback, and the optional
// learning write-back.
type ClassificationService struct {
	llm                 LLMClient
	knowledge           KnowledgeStore
	tools               ToolProvider
	feedbackLog         FeedbackLog
	logger              *zap.Logger
	provider            string
	enableLearning      bool
	confidenceThreshold float64
}

// NewClassificationService creates a new classification service
func NewClassificationService(
	llm LLMClient,
	knowledge KnowledgeStore,
	tools ToolProvider,
	feedbackLog FeedbackLog,
	logger *zap.Logger,
	provider string,
	enableLearning bool,
	confidenceThreshold float64,
) *ClassificationService {
	return &ClassificationService{
		llm:                 llm,
		knowledge:           knowledge,
		tools:               tools,
		feedbackLog:         feedbackLog,
		logger:              logger,
		provider:            provider,
		enableLearning:      enableLearning,
		confidenceThreshold: confidenceThreshold,
	}
}

// Classify runs the full pipeline for one email. Backend call failures
// propagate; malformed model output never does.
func (s *ClassificationService) Classify(ctx context.Context, email *Email) (*ClassificationResult, error) {
	retrieval := s.knowledge.Context(ctx, email.Content())

	req := &CompletionRequest{
		SystemPrompt: BuildSystemPrompt(retrieval),
		UserPrompt:   BuildUserPrompt(email),
		Tools:        s.tools.Specs(),
	}

	resp, err := s.llm.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm completion failed: %w", err)
	}

	// At most one round of tool resolution. If the follow-up response asks
	// for tools again, its text (possibly empty) is treated as final.
	if len(resp.ToolCalls) > 0 {
		outcomes := s.resolveToolCalls(ctx, resp.ToolCalls)
		resp, err = s.llm.ContinueWithToolResults(ctx, req, resp, outcomes)
		if err != nil {
			return nil, fmt.Errorf("llm tool follow-up failed: %w", err)
		}
	}

	result := ParseClassificationResponse(resp.Text)
	result.ProcessingID = uuid.NewString()
	result.ModelUsed = resp.ModelUsed

	s.logger.Info("Email classified",
		zap.String("category", result.PrimaryCategory.String()),
		zap.Float64("confidence", result.Confidence),
		zap.String("priority", string(result.Priority)),
		zap.String("processing_id", result.ProcessingID))

	if s.enableLearning {
		s.recordHistory(ctx, email, result)
	}

	return result, nil
}

// resolveToolCalls executes every requested tool via the registry. Tool
// failures come back as error-shaped results and flow into the conversation.
func (s *ClassificationService) resolveToolCalls(ctx context.Context, calls []ToolCall) []ToolOutcome {
	outcomes := make([]ToolOutcome, 0, len(calls))
	for _, call := range calls {
		result, err := s.tools.Execute(ctx, call.Name, call.Arguments)
		if err != nil {
			// Unknown tool name; report it to the model like a tool failure
			result = map[string]interface{}{"error": err.Error(), "tool": call.Name}
		}
		s.logger.Debug("Resolved tool call",
			zap.String("tool", call.Name),
			zap.String("tool_use_id", call.ID))
		outcomes = append(outcomes, ToolOutcome{Call: call, Result: result})
	}
	return outcomes
}

// recordHistory appends the classification outcome to the history collection
func (s *ClassificationService) recordHistory(ctx context.Context, email *Email, result *ClassificationResult) {
	entry := HistoryEntry{
		EmailID:      email.ID(),
		EmailContent: email.Content(),
		Category:     result.PrimaryCategory,
		Confidence:   result.Confidence,
		Metadata: map[string]interface{}{
			"subject":            email.Subject,
			"sender":             email.Sender,
			"extracted_entities": result.ExtractedEntities,
		},
	}
	if err := s.knowledge.AddHistory(ctx, entry); err != nil {
		s.logger.Error("Failed to record classification history", zap.Error(err))
	}
}

// ProvideFeedback records a human correction: a feedback log entry, a
// corrected history entry, and (when the label actually changed) a
// common-query exemplar future retrieval can surface as precedent.
// No-op when learning is disabled.
func (s *ClassificationService) ProvideFeedback(
	ctx context.Context,
	email *Email,
	originalCategory Category,
	correctCategory Category,
	confidence float64,
	notes string,
) error {
	if !s.enableLearning {
		return nil
	}

	emailID := email.ID()
	content := email.Content()

	entry := FeedbackEntry{
		EmailID:           emailID,
		OriginalCategory:  originalCategory,
		CorrectCategory:   correctCategory,
		Confidence:        confidence,
		EmailContent:      content,
		Notes:             notes,
		FeedbackTimestamp: time.Now(),
	}
	if err := s.feedbackLog.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append feedback: %w", err)
	}

	wasCorrect := true
	history := HistoryEntry{
		EmailID:      emailID + "_corrected",
		EmailContent: content,
		Category:     correctCategory,
		Confidence:   1.0,
		WasCorrect:   &wasCorrect,
		Metadata: map[string]interface{}{
			"original_classification": originalCategory.String(),
			"feedback_notes":          notes,
		},
	}
	if err := s.knowledge.AddHistory(ctx, history); err != nil {
		return fmt.Errorf("failed to record corrected history: %w", err)
	}

	if originalCategory != correctCategory {
		query := QueryEntry{
			QueryID:    "feedback_" + emailID,
			QueryText:  content,
			Category:   correctCategory,
			Confidence: 1.0,
			Metadata:   map[string]interface{}{"source": "feedback"},
		}
		if err := s.knowledge.AddCommonQuery(ctx, query); err != nil {
			return fmt.Errorf("failed to record corrected query: %w", err)
		}
	}

	s.logger.Info("Feedback recorded",
		zap.String("email_id", emailID),
		zap.String("original", originalCategory.String()),
		zap.String("correct", correctCategory.String()))
	return nil
}

// NeedsReview reports whether a result falls below the configured confidence
// threshold. Advisory only; the pipeline never alters a result because of it.
func (s *ClassificationService) NeedsReview(result *ClassificationResult) bool {
	return result.Confidence < s.confidenceThreshold
}

// Stats summarizes the agent and its knowledge base
func (s *ClassificationService) Stats(ctx context.Context) (AgentStats, error) {
	kbStats, err := s.knowledge.Stats(ctx)
	if err != nil {
		return AgentStats{}, fmt.Errorf("failed to read knowledge base stats: %w", err)
	}
	return AgentStats{
		LLMProvider:     s.provider,
		Model:           s.llm.Model(),
		KnowledgeBase:   kbStats,
		ToolsRegistered: s.tools.Count(),
		LearningEnabled: s.enableLearning,
	}, nil
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client is an implementation of the core.LLMClient interface using the
// OpenAI chat completions API
type Client struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient creates a new OpenAI-backed LLM client
func NewClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
) *Client {
	return &Client{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.modelName
}

// Complete performs the initial completion call
func (c *Client) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
	}
	return c.send(ctx, messages, req.Tools)
}

// ContinueWithToolResults appends executed tool results to the conversation
// and issues the single follow-up call
func (c *Client) ContinueWithToolResults(ctx context.Context, req *core.CompletionRequest, prev *core.CompletionResponse, outcomes []core.ToolOutcome) (*core.CompletionResponse, error) {
	messages, ok := prev.VendorTurn().([]openai.ChatCompletionMessage)
	if !ok {
		return nil, fmt.Errorf("missing OpenAI conversation state for follow-up call")
	}

	for _, outcome := range outcomes {
		content, err := json.Marshal(outcome.Result)
		if err != nil {
			content = []byte(fmt.Sprintf(`{"error":%q,"tool":%q}`, err.Error(), outcome.Call.Name))
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(content),
			ToolCallID: outcome.Call.ID,
		})
	}

	// Tools are deliberately omitted here: one resolution round only
	return c.send(ctx, messages, nil)
}

func (c *Client) send(ctx context.Context, messages []openai.ChatCompletionMessage, tools []core.ToolSpec) (*core.CompletionResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if len(tools) > 0 {
		chatReq.Tools = buildTools(tools)
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	message := resp.Choices[0].Message
	out := &core.CompletionResponse{
		Text:      message.Content,
		ModelUsed: c.modelName,
	}

	for _, tc := range message.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				c.logger.Warn("Failed to decode tool call arguments",
					zap.String("tool", tc.Function.Name),
					zap.Error(err))
			}
		}
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	// Record the conversation so far, assistant turn included, for a
	// potential tool-result follow-up
	out.SetVendorTurn(append(messages, message))

	c.logger.Debug("OpenAI completion finished",
		zap.String("model", c.modelName),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return out, nil
}

func buildTools(specs []core.ToolSpec) []openai.Tool {
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema,
			},
		})
	}
	return tools
}

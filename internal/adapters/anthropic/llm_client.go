package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/penta/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// Client is an implementation of the core.LLMClient interface using the
// Anthropic messages API
type Client struct {
	client      anthropic.Client
	modelName   string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient creates a new Anthropic-backed LLM client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	logger *zap.Logger,
) *Client {
	return &Client{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
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
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
	}
	return c.send(ctx, req.SystemPrompt, messages, req.Tools)
}

// ContinueWithToolResults appends tool_result blocks to the conversation and
// issues the single follow-up call
func (c *Client) ContinueWithToolResults(ctx context.Context, req *core.CompletionRequest, prev *core.CompletionResponse, outcomes []core.ToolOutcome) (*core.CompletionResponse, error) {
	messages, ok := prev.VendorTurn().([]anthropic.MessageParam)
	if !ok {
		return nil, fmt.Errorf("missing Anthropic conversation state for follow-up call")
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(outcomes))
	for _, outcome := range outcomes {
		content, err := json.Marshal(outcome.Result)
		if err != nil {
			content = []byte(fmt.Sprintf(`{"error":%q,"tool":%q}`, err.Error(), outcome.Call.Name))
		}
		isError := false
		if m, ok := outcome.Result.(map[string]interface{}); ok {
			_, isError = m["error"]
		}
		blocks = append(blocks, anthropic.NewToolResultBlock(outcome.Call.ID, string(content), isError))
	}
	messages = append(messages, anthropic.NewUserMessage(blocks...))

	return c.send(ctx, req.SystemPrompt, messages, req.Tools)
}

func (c *Client) send(ctx context.Context, system string, messages []anthropic.MessageParam, tools []core.ToolSpec) (*core.CompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelName),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(float64(c.temperature)),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: messages,
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message with Anthropic: %w", err)
	}

	out := &core.CompletionResponse{ModelUsed: c.modelName}
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			args := map[string]interface{}{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					c.logger.Warn("Failed to decode tool_use input",
						zap.String("tool", block.Name),
						zap.Error(err))
				}
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	// Record the conversation so far, assistant turn included, for a
	// potential tool-result follow-up
	out.SetVendorTurn(append(messages, message.ToParam()))

	c.logger.Debug("Anthropic completion finished",
		zap.String("model", c.modelName),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.String("stop_reason", string(message.StopReason)),
		zap.Int64("input_tokens", message.Usage.InputTokens),
		zap.Int64("output_tokens", message.Usage.OutputTokens))
	return out, nil
}

func buildTools(specs []core.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tool := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.InputSchema["properties"],
				Required:   schemaRequired(spec.InputSchema),
			},
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func schemaRequired(schema map[string]interface{}) []string {
	switch v := schema["required"].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

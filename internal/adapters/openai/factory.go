package openai

import (
	"fmt"

	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/penta/llm-email-classifier/internal/knowledge"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates OpenAI-backed clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAI clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new OpenAI LLM client. A missing API key is a
// configuration error surfaced at construction time.
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required when using the openai provider")
	}

	client := openai.NewClient(openaiCfg.APIKey)
	return NewClient(
		client,
		openaiCfg.Model,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		f.logger,
	), nil
}

// CreateEmbedder creates an OpenAI embeddings client
func (f *Factory) CreateEmbedder() (knowledge.Embedder, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required for the openai embedder")
	}

	knowledgeCfg := f.cfg.GetKnowledge()
	client := openai.NewClient(openaiCfg.APIKey)
	return NewEmbedder(client, knowledgeCfg.EmbeddingModel, f.logger), nil
}

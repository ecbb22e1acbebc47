package anthropic

import (
	"fmt"

	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// Factory creates Anthropic-backed clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Anthropic clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new Anthropic LLM client. A missing API key is a
// configuration error surfaced at construction time.
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	anthropicCfg := f.cfg.GetAnthropic()
	if anthropicCfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic.api_key is required when using the anthropic provider")
	}

	return NewClient(
		anthropicCfg.APIKey,
		anthropicCfg.Model,
		anthropicCfg.MaxTokens,
		anthropicCfg.Temperature,
		f.logger,
	), nil
}

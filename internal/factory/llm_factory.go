package factory

import (
	"fmt"

	"github.com/penta/llm-email-classifier/internal/adapters/anthropic"
	"github.com/penta/llm-email-classifier/internal/adapters/openai"
	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "anthropic":
		factory := anthropic.NewFactory(f.cfg, f.logger)
		return factory.CreateLLMClient()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger)
		return factory.CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}

// MaxBodySize returns the configured max email body size for the selected
// provider
func (f *LLMFactory) MaxBodySize() int {
	switch f.cfg.GetLLM().Provider {
	case "openai":
		return f.cfg.GetOpenAI().MaxBodySize
	default:
		return f.cfg.GetAnthropic().MaxBodySize
	}
}

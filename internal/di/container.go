package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/penta/llm-email-classifier/internal/adapters/gateway"
	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/penta/llm-email-classifier/internal/factory"
	"github.com/penta/llm-email-classifier/internal/feedback"
	"github.com/penta/llm-email-classifier/internal/knowledge"
	"github.com/penta/llm-email-classifier/internal/logging"
	"github.com/penta/llm-email-classifier/internal/ports"
	"github.com/penta/llm-email-classifier/internal/tools"
	"github.com/penta/llm-email-classifier/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewKnowledgeFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register knowledge base
	if err := container.Provide(func(f *factory.KnowledgeFactory) (*knowledge.KnowledgeBase, error) {
		return f.CreateKnowledgeBase()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(kb *knowledge.KnowledgeBase) core.KnowledgeStore {
		return kb
	}); err != nil {
		return nil, err
	}

	// Register tool registry
	if err := container.Provide(func(kb core.KnowledgeStore) *tools.Registry {
		return tools.NewDefaultRegistry(kb)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(r *tools.Registry) core.ToolProvider {
		return r
	}); err != nil {
		return nil, err
	}

	// Register feedback log
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.FeedbackLog, error) {
		return feedback.NewJSONLog(cfg.GetFeedback().LogPath, logger)
	}); err != nil {
		return nil, err
	}

	// Register classification service
	if err := container.Provide(func(
		llm core.LLMClient,
		kb core.KnowledgeStore,
		toolProvider core.ToolProvider,
		feedbackLog core.FeedbackLog,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.ClassificationService {
		agentCfg := cfg.GetAgent()
		return core.NewClassificationService(
			llm,
			kb,
			toolProvider,
			feedbackLog,
			logger,
			cfg.GetLLM().Provider,
			agentCfg.EnableLearning,
			agentCfg.ConfidenceThreshold,
		)
	}); err != nil {
		return nil, err
	}

	// Register SMTP gateway
	if err := container.Provide(func(
		service *core.ClassificationService,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		cfg *config.Config,
		llmFactory *factory.LLMFactory,
	) ports.EmailGateway {
		return gateway.NewSMTPGateway(service, textProcessor, logger, cfg.GetServer(), llmFactory.MaxBodySize())
	}); err != nil {
		return nil, err
	}

	return container, nil
}

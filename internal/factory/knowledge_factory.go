package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/penta/llm-email-classifier/internal/adapters/openai"
	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/knowledge"
	"go.uber.org/zap"
)

// KnowledgeFactory creates vector indexes and embedders based on configuration
type KnowledgeFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewKnowledgeFactory creates a new knowledge factory
func NewKnowledgeFactory(cfg *config.Config, logger *zap.Logger) *KnowledgeFactory {
	return &KnowledgeFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVectorIndex creates a vector index based on the configuration
func (f *KnowledgeFactory) CreateVectorIndex() (knowledge.VectorIndex, error) {
	knowledgeCfg := f.cfg.GetKnowledge()

	switch knowledgeCfg.Index {
	case "memory":
		return knowledge.NewMemoryIndex(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(knowledgeCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return knowledge.NewSQLiteIndex(knowledgeCfg.SQLitePath, f.logger)
	case "mysql":
		return knowledge.NewMySQLIndex(knowledgeCfg.MySQLDSN, f.logger)
	case "pgvector":
		return knowledge.NewPgvectorIndex(knowledgeCfg.PostgresDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported knowledge index: %s", knowledgeCfg.Index)
	}
}

// CreateEmbedder creates an embedder based on the configuration
func (f *KnowledgeFactory) CreateEmbedder() (knowledge.Embedder, error) {
	knowledgeCfg := f.cfg.GetKnowledge()

	switch knowledgeCfg.Embedder {
	case "local":
		return knowledge.NewLocalEmbedder(), nil
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger)
		return factory.CreateEmbedder()
	default:
		return nil, fmt.Errorf("unsupported embedder: %s", knowledgeCfg.Embedder)
	}
}

// CreateKnowledgeBase assembles the knowledge base from the configured index
// and embedder
func (f *KnowledgeFactory) CreateKnowledgeBase() (*knowledge.KnowledgeBase, error) {
	index, err := f.CreateVectorIndex()
	if err != nil {
		return nil, err
	}
	embedder, err := f.CreateEmbedder()
	if err != nil {
		return nil, err
	}
	knowledgeCfg := f.cfg.GetKnowledge()
	return knowledge.NewKnowledgeBase(index, embedder, f.logger, knowledgeCfg.ContextResults), nil
}

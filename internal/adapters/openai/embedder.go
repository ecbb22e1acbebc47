package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Embedder derives embeddings via the OpenAI embeddings API
type Embedder struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewEmbedder creates a new OpenAI embedder
func NewEmbedder(client *openai.Client, model string, logger *zap.Logger) *Embedder {
	return &Embedder{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Embed derives a vector for the given text
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding with OpenAI: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}
	return resp.Data[0].Embedding, nil
}

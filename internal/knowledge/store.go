package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/penta/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// Collection names. Each is an independent grow-only log of embedded records.
const (
	CollectionProducts = "products"
	CollectionQueries  = "common_queries"
	CollectionHistory  = "classification_history"
)

// SearchResult is one nearest-neighbor hit from a vector index
type SearchResult struct {
	ID       string
	Document string
	Metadata map[string]interface{}
	Distance float64
}

// VectorIndex is the keyed nearest-neighbor search engine behind the
// knowledge base. Implementations must keep collections independent.
type VectorIndex interface {
	// Add inserts or overwrites a record by id within a collection
	Add(ctx context.Context, collection, id, document string, embedding []float32, metadata map[string]interface{}) error

	// Search returns up to k records ordered by ascending distance.
	// An empty collection yields an empty slice, not an error.
	Search(ctx context.Context, collection string, embedding []float32, k int) ([]SearchResult, error)

	// Count returns the number of records in a collection
	Count(ctx context.Context, collection string) (int, error)
}

// Embedder derives a vector embedding for a piece of text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// KnowledgeBase stores product, common-query and classification-history
// records and retrieves nearest neighbors for classification context.
// Implements core.KnowledgeStore.
type KnowledgeBase struct {
	index          VectorIndex
	embedder       Embedder
	logger         *zap.Logger
	contextResults int
}

// NewKnowledgeBase creates a knowledge base over the given index and embedder
func NewKnowledgeBase(index VectorIndex, embedder Embedder, logger *zap.Logger, contextResults int) *KnowledgeBase {
	if contextResults <= 0 {
		contextResults = 3
	}
	return &KnowledgeBase{
		index:          index,
		embedder:       embedder,
		logger:         logger,
		contextResults: contextResults,
	}
}

// Index exposes the underlying vector index, mainly so callers can close
// backends that hold external resources.
func (kb *KnowledgeBase) Index() VectorIndex {
	return kb.index
}

// AddProduct stores a catalog entry
func (kb *KnowledgeBase) AddProduct(ctx context.Context, productID, name, description, category string, metadata map[string]interface{}) error {
	doc := fmt.Sprintf("%s: %s", name, description)
	meta := map[string]interface{}{
		"product_id": productID,
		"name":       name,
		"category":   category,
	}
	mergeMetadata(meta, metadata)
	return kb.add(ctx, CollectionProducts, productID, doc, meta)
}

// AddCommonQuery stores a query→label exemplar
func (kb *KnowledgeBase) AddCommonQuery(ctx context.Context, entry core.QueryEntry) error {
	meta := map[string]interface{}{
		"query_id":       entry.QueryID,
		"classification": entry.Category.String(),
		"confidence":     entry.Confidence,
		"added_at":       time.Now().Format(time.RFC3339),
	}
	mergeMetadata(meta, entry.Metadata)
	return kb.add(ctx, CollectionQueries, entry.QueryID, entry.QueryText, meta)
}

// AddHistory stores a past classification outcome
func (kb *KnowledgeBase) AddHistory(ctx context.Context, entry core.HistoryEntry) error {
	meta := map[string]interface{}{
		"email_id":       entry.EmailID,
		"classification": entry.Category.String(),
		"confidence":     entry.Confidence,
		"timestamp":      time.Now().Format(time.RFC3339),
	}
	if entry.WasCorrect != nil {
		meta["was_correct"] = *entry.WasCorrect
	}
	mergeMetadata(meta, entry.Metadata)
	return kb.add(ctx, CollectionHistory, entry.EmailID, entry.EmailContent, meta)
}

func (kb *KnowledgeBase) add(ctx context.Context, collection, id, document string, metadata map[string]interface{}) error {
	embedding, err := kb.embedder.Embed(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}
	if err := kb.index.Add(ctx, collection, id, document, embedding, metadata); err != nil {
		return fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return nil
}

// Search runs a nearest-neighbor query against one collection. A failure
// anywhere (embedding or index) degrades to an empty result set; retrieval
// problems must never block classification.
func (kb *KnowledgeBase) Search(ctx context.Context, collection, query string, k int) []core.RetrievedRecord {
	embedding, err := kb.embedder.Embed(ctx, query)
	if err != nil {
		kb.logger.Warn("Failed to embed search query",
			zap.String("collection", collection),
			zap.Error(err))
		return []core.RetrievedRecord{}
	}

	hits, err := kb.index.Search(ctx, collection, embedding, k)
	if err != nil {
		kb.logger.Warn("Knowledge base search failed",
			zap.String("collection", collection),
			zap.Error(err))
		return []core.RetrievedRecord{}
	}

	records := make([]core.RetrievedRecord, 0, len(hits))
	for _, hit := range hits {
		records = append(records, core.RetrievedRecord{
			Document: hit.Document,
			Metadata: hit.Metadata,
			Distance: hit.Distance,
		})
	}
	return records
}

// Context gathers retrieval context for classifying the given email text
func (kb *KnowledgeBase) Context(ctx context.Context, emailText string) *core.RetrievalContext {
	return &core.RetrievalContext{
		SimilarQueries:   kb.Search(ctx, CollectionQueries, emailText, kb.contextResults),
		RelevantProducts: kb.Search(ctx, CollectionProducts, emailText, kb.contextResults),
		SimilarHistory:   kb.Search(ctx, CollectionHistory, emailText, kb.contextResults),
	}
}

// Stats returns element counts per collection
func (kb *KnowledgeBase) Stats(ctx context.Context) (core.KnowledgeStats, error) {
	products, err := kb.index.Count(ctx, CollectionProducts)
	if err != nil {
		return core.KnowledgeStats{}, err
	}
	queries, err := kb.index.Count(ctx, CollectionQueries)
	if err != nil {
		return core.KnowledgeStats{}, err
	}
	history, err := kb.index.Count(ctx, CollectionHistory)
	if err != nil {
		return core.KnowledgeStats{}, err
	}
	return core.KnowledgeStats{
		TotalProducts: products,
		TotalQueries:  queries,
		TotalHistory:  history,
	}, nil
}

func mergeMetadata(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

package knowledge

import (
	"context"
	"sort"
	"sync"
)

type memoryRecord struct {
	id        string
	document  string
	embedding []float32
	metadata  map[string]interface{}
}

// MemoryIndex is an in-memory implementation of the VectorIndex interface,
// scoring by brute-force cosine distance. Suitable for small knowledge bases
// and tests.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryRecord
}

// NewMemoryIndex creates a new in-memory vector index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		collections: make(map[string]map[string]*memoryRecord),
	}
}

// Add inserts or overwrites a record by id
func (m *MemoryIndex) Add(ctx context.Context, collection, id, document string, embedding []float32, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]*memoryRecord)
		m.collections[collection] = coll
	}
	coll[id] = &memoryRecord{
		id:        id,
		document:  document,
		embedding: embedding,
		metadata:  metadata,
	}
	return nil
}

// Search returns up to k records ordered by ascending cosine distance
func (m *MemoryIndex) Search(ctx context.Context, collection string, embedding []float32, k int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll := m.collections[collection]
	if len(coll) == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(coll))
	for _, rec := range coll {
		results = append(results, SearchResult{
			ID:       rec.id,
			Document: rec.document,
			Metadata: rec.metadata,
			Distance: cosineDistance(embedding, rec.embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of records in a collection
func (m *MemoryIndex) Count(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

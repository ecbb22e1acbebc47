package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteIndex is a SQLite implementation of the VectorIndex interface.
// Embeddings are persisted as little-endian float32 blobs and scored in Go;
// collections are small enough that a full scan per query is acceptable.
type SQLiteIndex struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// NewSQLiteIndex creates a new SQLite-backed vector index
func NewSQLiteIndex(dbPath string, logger *zap.Logger) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS knowledge_records (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_collection ON knowledge_records(collection)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteIndex{db: db, logger: logger}, nil
}

// Add inserts or overwrites a record by id
func (s *SQLiteIndex) Add(ctx context.Context, collection, id, document string, embedding []float32, metadata map[string]interface{}) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	// Serialize writes; the underlying storage is not concurrency-safe
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO knowledge_records (collection, id, document, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, collection, id, document, encodeEmbedding(embedding), string(metaJSON))
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Search returns up to k records ordered by ascending cosine distance
func (s *SQLiteIndex) Search(ctx context.Context, collection string, embedding []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, embedding, metadata
		FROM knowledge_records
		WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var id, document, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &document, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		stored, err := decodeEmbedding(blob)
		if err != nil {
			s.logger.Warn("Skipping record with corrupt embedding",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err))
			continue
		}

		var metadata map[string]interface{}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
				s.logger.Warn("Skipping unreadable record metadata",
					zap.String("id", id),
					zap.Error(err))
			}
		}

		results = append(results, SearchResult{
			ID:       id,
			Document: document,
			Metadata: metadata,
			Distance: cosineDistance(embedding, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
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
func (s *SQLiteIndex) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knowledge_records WHERE collection = ?
	`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

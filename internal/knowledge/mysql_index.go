package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLIndex is a MySQL implementation of the VectorIndex interface, using
// the same blob-embedding scheme as the SQLite index for deployments that
// already run MySQL.
type MySQLIndex struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLIndex creates a new MySQL-backed vector index
func NewMySQLIndex(dsn string, logger *zap.Logger) (*MySQLIndex, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS knowledge_records (
			collection VARCHAR(64) NOT NULL,
			id VARCHAR(255) NOT NULL,
			document TEXT NOT NULL,
			embedding MEDIUMBLOB NOT NULL,
			metadata JSON,
			PRIMARY KEY (collection, id),
			INDEX idx_collection (collection)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLIndex{db: db, logger: logger}, nil
}

// Add inserts or overwrites a record by id
func (m *MySQLIndex) Add(ctx context.Context, collection, id, document string, embedding []float32, metadata map[string]interface{}) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		REPLACE INTO knowledge_records (collection, id, document, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, collection, id, document, encodeEmbedding(embedding), string(metaJSON))
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Search returns up to k records ordered by ascending cosine distance
func (m *MySQLIndex) Search(ctx context.Context, collection string, embedding []float32, k int) ([]SearchResult, error) {
	rows, err := m.db.QueryContext(ctx, `
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
		var id, document string
		var blob []byte
		var metaJSON sql.NullString
		if err := rows.Scan(&id, &document, &blob, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		stored, err := decodeEmbedding(blob)
		if err != nil {
			m.logger.Warn("Skipping record with corrupt embedding",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err))
			continue
		}

		var metadata map[string]interface{}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &metadata); err != nil {
				m.logger.Warn("Skipping unreadable record metadata",
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
func (m *MySQLIndex) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knowledge_records WHERE collection = ?
	`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (m *MySQLIndex) Close() error {
	return m.db.Close()
}

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// knowledgeRecord is the gorm model backing the pgvector index.
// The vector column is sized for text-embedding-3-small output; use the
// openai embedder with this index.
type knowledgeRecord struct {
	Collection string          `gorm:"primaryKey;size:64"`
	ID         string          `gorm:"primaryKey;size:255;column:id"`
	Document   string          `gorm:"type:text"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)"`
	Metadata   string          `gorm:"type:jsonb"`
}

func (knowledgeRecord) TableName() string {
	return "knowledge_records"
}

// PgvectorIndex is a Postgres implementation of the VectorIndex interface
// that pushes similarity ordering down to pgvector's cosine operator.
// Requires the vector extension to be installed in the target database.
type PgvectorIndex struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPgvectorIndex creates a new pgvector-backed index
func NewPgvectorIndex(dsn string, logger *zap.Logger) (*PgvectorIndex, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.AutoMigrate(&knowledgeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate knowledge_records: %w", err)
	}

	return &PgvectorIndex{db: db, logger: logger}, nil
}

// Add inserts or overwrites a record by id
func (p *PgvectorIndex) Add(ctx context.Context, collection, id, document string, embedding []float32, metadata map[string]interface{}) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	record := knowledgeRecord{
		Collection: collection,
		ID:         id,
		Document:   document,
		Embedding:  pgvector.NewVector(embedding),
		Metadata:   string(metaJSON),
	}
	err = p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&knowledgeRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to replace record: %w", err)
	}
	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Search returns up to k records ordered by ascending cosine distance
func (p *PgvectorIndex) Search(ctx context.Context, collection string, embedding []float32, k int) ([]SearchResult, error) {
	query := pgvector.NewVector(embedding)

	type scoredRecord struct {
		knowledgeRecord
		Distance float64
	}
	var rows []scoredRecord

	err := p.db.WithContext(ctx).
		Table("knowledge_records").
		Select("knowledge_records.*, embedding <=> ? AS distance", query).
		Where("collection = ?", collection).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ?",
			Vars:               []interface{}{query},
			WithoutParentheses: true,
		}}).
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]interface{}
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
				p.logger.Warn("Skipping unreadable record metadata",
					zap.String("id", row.ID),
					zap.Error(err))
			}
		}
		results = append(results, SearchResult{
			ID:       row.ID,
			Document: row.Document,
			Metadata: metadata,
			Distance: row.Distance,
		})
	}
	return results, nil
}

// Count returns the number of records in a collection
func (p *PgvectorIndex) Count(ctx context.Context, collection string) (int, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&knowledgeRecord{}).
		Where("collection = ?", collection).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

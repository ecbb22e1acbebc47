package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/penta/llm-email-classifier/internal/core"
	"go.uber.org/zap"
)

// JSONLog persists feedback entries as a single JSON array on disk. Each
// append reads the existing array, adds the entry, and rewrites the whole
// file; a mutex serializes writers.
type JSONLog struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONLog creates a feedback log at the given path, creating parent
// directories as needed
func NewJSONLog(path string, logger *zap.Logger) (*JSONLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feedback log directory: %w", err)
	}
	return &JSONLog{path: path, logger: logger}, nil
}

// Append adds a feedback entry to the log
func (l *JSONLog) Append(ctx context.Context, entry core.FeedbackEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readAll()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feedback log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write feedback log: %w", err)
	}

	l.logger.Debug("Feedback entry appended",
		zap.String("email_id", entry.EmailID),
		zap.Int("total_entries", len(entries)))
	return nil
}

// Entries returns every recorded feedback entry
func (l *JSONLog) Entries() ([]core.FeedbackEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

func (l *JSONLog) readAll() ([]core.FeedbackEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.FeedbackEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read feedback log: %w", err)
	}

	var entries []core.FeedbackEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// An unreadable log is treated as empty rather than blocking
		// future feedback
		l.logger.Warn("Feedback log is not valid JSON, starting fresh",
			zap.String("path", l.path),
			zap.Error(err))
		return []core.FeedbackEntry{}, nil
	}
	return entries, nil
}

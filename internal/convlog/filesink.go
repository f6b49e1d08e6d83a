package convlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSink appends log rows to a local JSONL file. It backs the conversation
// log when the Sheets sink is not configured.
type FileSink struct {
	path string
	mu   sync.Mutex
}

type fileRow struct {
	Timestamp time.Time `json:"timestamp"`
	Sheet     string    `json:"sheet"`
	Row       []any     `json:"row"`
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init log file: %w", err)
	}
	_ = f.Close()
	return &FileSink{path: path}, nil
}

func (s *FileSink) AppendRow(_ context.Context, sheetName string, row []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	if err := enc.Encode(fileRow{Timestamp: time.Now().UTC(), Sheet: sheetName, Row: row}); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

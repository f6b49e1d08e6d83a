// Package memory persists per-user conversation history and preferences in
// SQLite, keyed by the derived user UUID.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultHistoryLimit bounds Recent reads when callers pass no explicit limit.
const DefaultHistoryLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS conversation_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT NOT NULL,
	role      TEXT NOT NULL,
	content   TEXT NOT NULL,
	ts        INTEGER NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_history_user_ts ON conversation_history(user_id, ts);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id     TEXT PRIMARY KEY,
	preferences TEXT NOT NULL,
	updated_at  INTEGER NOT NULL
);
`

// Store wraps the SQLite handle shared by history and preference access.
type Store struct {
	db           *sql.DB
	historyLimit int
}

func Open(path string, historyLimit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure memory dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init memory schema: %w", err)
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{db: db, historyLimit: historyLimit}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

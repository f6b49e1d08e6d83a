package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one message in a user's conversation log.
type Entry struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Summary describes a user's stored conversation.
type Summary struct {
	TotalMessages     int           `json:"total_messages"`
	UserMessages      int           `json:"user_messages"`
	AssistantMessages int           `json:"assistant_messages"`
	FirstMessageAt    time.Time     `json:"first_message_at"`
	LastMessageAt     time.Time     `json:"last_message_at"`
	Duration          time.Duration `json:"duration"`
}

// Append adds one entry to the end of the user's log. A zero timestamp is
// filled with the current time.
func (s *Store) Append(ctx context.Context, userKey string, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	meta := "{}"
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_history (user_id, role, content, ts, metadata) VALUES (?, ?, ?, ?, ?)`,
		userKey, e.Role, e.Content, e.Timestamp.UnixNano(), meta)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent entries in chronological order.
// limit <= 0 uses the configured default.
func (s *Store) Recent(ctx context.Context, userKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, ts, metadata FROM conversation_history
		 WHERE user_id = ? ORDER BY ts DESC, id DESC LIMIT ?`,
		userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			ts   int64
			meta string
		)
		if err := rows.Scan(&e.Role, &e.Content, &ts, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				e.Metadata = nil
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	// Rows come newest-first; reverse into chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Clear deletes all entries for the user.
func (s *Store) Clear(ctx context.Context, userKey string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_history WHERE user_id = ?`, userKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Summarize reports counts and time bounds over the user's full log.
// An empty or single-entry log has zero duration.
func (s *Store) Summarize(ctx context.Context, userKey string) (Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(MIN(ts), 0),
		        COALESCE(MAX(ts), 0)
		 FROM conversation_history WHERE user_id = ?`,
		RoleUser, RoleAssistant, userKey)

	var (
		sum            Summary
		firstNS, lastNS int64
	)
	if err := row.Scan(&sum.TotalMessages, &sum.UserMessages, &sum.AssistantMessages, &firstNS, &lastNS); err != nil {
		if err == sql.ErrNoRows {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("failed to summarize history: %w", err)
	}
	if sum.TotalMessages > 0 {
		sum.FirstMessageAt = time.Unix(0, firstNS).UTC()
		sum.LastMessageAt = time.Unix(0, lastNS).UTC()
		sum.Duration = sum.LastMessageAt.Sub(sum.FirstMessageAt)
	}
	return sum, nil
}

package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Preferences is a free-form keyed settings record. Well-known keys used by
// the bot are listed below; anything else is carried through untouched.
type Preferences map[string]any

const (
	PrefName          = "name"
	PrefUsername      = "username"
	PrefLanguage      = "language"
	PrefNotifications = "notifications_enabled"
)

// SavePreferences upserts the user's full preference record.
func (s *Store) SavePreferences(ctx context.Context, userKey string, prefs Preferences) error {
	b, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, preferences, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET preferences = excluded.preferences, updated_at = excluded.updated_at`,
		userKey, string(b), time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Preferences returns the user's record, reporting false when none exists.
func (s *Store) Preferences(ctx context.Context, userKey string) (Preferences, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT preferences FROM user_preferences WHERE user_id = ?`, userKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preferences: %w", err)
	}
	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, false, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return prefs, true, nil
}

// UpdatePreference sets a single key, creating the record if absent.
func (s *Store) UpdatePreference(ctx context.Context, userKey, key string, value any) error {
	prefs, ok, err := s.Preferences(ctx, userKey)
	if err != nil {
		return err
	}
	if !ok {
		prefs = Preferences{}
	}
	prefs[key] = value
	return s.SavePreferences(ctx, userKey, prefs)
}

// DeletePreferences removes the user's record. Deletion is always explicit;
// nothing in the bot removes preferences on its own.
func (s *Store) DeletePreferences(ctx context.Context, userKey string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_preferences WHERE user_id = ?`, userKey); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

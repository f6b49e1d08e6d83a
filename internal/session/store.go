package session

import (
	"sync"
	"time"
)

// Session tracks a single user's conversation lifetime.
type Session struct {
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Store abstracts session persistence so the manager can be backed by the
// in-process map here or by an external keyed store.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(userID int64) (Session, bool)
	Put(s Session)
	Delete(userID int64)
	// Expired returns the IDs of all sessions whose last activity is at or
	// before the cutoff.
	Expired(cutoff time.Time) []int64
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore returns the default in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]Session)}
}

func (m *memoryStore) Get(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *memoryStore) Put(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = s
}

func (m *memoryStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryStore) Expired(cutoff time.Time) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []int64
	for id, s := range m.sessions {
		if !s.LastActivity.After(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

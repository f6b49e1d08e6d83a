package session

import (
	"log"
	"time"
)

// Manager owns session lifecycle: creation, activity refresh, expiry checks
// and removal. Activity updates require a prior Create; Touch never creates
// a session implicitly, so callers must check IsActive and create first.
type Manager struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

func NewManager(store Store, timeout time.Duration) *Manager {
	return &Manager{store: store, timeout: timeout, now: time.Now}
}

// Create starts a fresh session for the user, overwriting any prior one.
func (m *Manager) Create(userID int64) {
	n := m.now()
	m.store.Put(Session{UserID: userID, CreatedAt: n, LastActivity: n})
}

// Touch refreshes last activity for an existing session. It reports whether
// a session existed; absent sessions are left absent.
func (m *Manager) Touch(userID int64) bool {
	s, ok := m.store.Get(userID)
	if !ok {
		return false
	}
	s.LastActivity = m.now()
	m.store.Put(s)
	return true
}

// IsActive reports whether the user has a session whose inactivity is
// strictly below the timeout. Pure read.
func (m *Manager) IsActive(userID int64) bool {
	s, ok := m.store.Get(userID)
	if !ok {
		return false
	}
	return m.now().Sub(s.LastActivity) < m.timeout
}

// Info returns the session when it exists and is active.
func (m *Manager) Info(userID int64) (Session, bool) {
	if !m.IsActive(userID) {
		return Session{}, false
	}
	return m.store.Get(userID)
}

// End removes the user's session. Safe to call repeatedly.
func (m *Manager) End(userID int64) {
	m.store.Delete(userID)
}

// Sweep removes every expired session and returns how many were dropped.
func (m *Manager) Sweep() int {
	expired := m.store.Expired(m.now().Add(-m.timeout))
	for _, id := range expired {
		m.store.Delete(id)
	}
	if len(expired) > 0 {
		log.Printf("session sweep removed %d expired session(s)", len(expired))
	}
	return len(expired)
}

package session

import "sync"

// Manager holds the active sessions keyed by Telegram user id. State is
// in-process only and last write wins per user; updates for one user arrive
// sequentially from the long-poll loop, so no per-user ordering is needed
// beyond the map lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, or nil when the user is idle.
func (m *Manager) Get(userID int64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[userID]
}

// Begin replaces any existing session with a fresh one at the given step.
func (m *Manager) Begin(userID int64, step Step) *Session {
	sess := &Session{Step: step}

	m.mu.Lock()
	m.sessions[userID] = sess
	m.mu.Unlock()

	return sess
}

// Put stores the session as-is, or clears it when the machine has moved the
// session to StepDone.
func (m *Manager) Put(userID int64, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess == nil || sess.Step == StepDone {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = sess
}

// Clear drops the user's session.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// Active reports how many sessions are in flight.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

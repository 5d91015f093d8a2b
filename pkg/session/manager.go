package session

import "sync"

// Manager serializes message processing per session. Two concurrent
// decisions racing on the same session could both pass prerequisite checks
// against stale state, so the caller must hold the session's lock across
// decide-then-update. Different sessions never contend.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for sessionID, creating it on first use.
func (m *Manager) Lock(sessionID string) {
	m.lockFor(sessionID).Lock()
}

// Unlock releases the lock for sessionID.
func (m *Manager) Unlock(sessionID string) {
	m.lockFor(sessionID).Unlock()
}

func (m *Manager) lockFor(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// Forget drops the lock entry for a finished session.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, sessionID)
}

package verification

import (
	"sync"

	"github.com/carelink/carelink-backend/internal/docstore"
)

// Manager hands out one session per subject per process. Sessions are
// reference counted so concurrent holders (REST handler plus a
// websocket) share state, and closed when the last holder releases.
type Manager struct {
	store *docstore.Store

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session *Session
	refs    int
}

func NewManager(store *docstore.Store) *Manager {
	return &Manager{
		store:    store,
		sessions: make(map[string]*managedSession),
	}
}

// Acquire returns the subject's session, creating it on first use
func (m *Manager) Acquire(subjectID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[subjectID]
	if !ok {
		entry = &managedSession{session: NewSession(subjectID, m.store)}
		m.sessions[subjectID] = entry
	}
	entry.refs++
	return entry.session
}

// Release drops one reference; the session is closed when none remain
func (m *Manager) Release(subjectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[subjectID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		entry.session.Close()
		delete(m.sessions, subjectID)
	}
}

// Get returns the subject's session without creating one
func (m *Manager) Get(subjectID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[subjectID]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

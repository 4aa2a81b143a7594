package session

import (
	"sync"

	"github.com/hupe1980/agentlab/core"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. The map lock only guards session lookup and creation; each
// session serializes its own reads and writes, so sessions never contend
// with each other beyond the lookup.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Append adds a message to an existing or newly created session.
func (s *InMemoryStore) Append(sessionID string, m core.Message) error {
	s.getOrCreate(sessionID).Append(m)
	return nil
}

// Context renders the last k messages of the session, or "" when the session
// is unknown or empty. It never creates a session.
func (s *InMemoryStore) Context(sessionID string, k int) string {
	sess := s.lookup(sessionID)
	if sess == nil {
		return ""
	}
	return core.RenderContext(sess.Window(k))
}

// History returns a copy of the full history, or nil for unknown sessions.
func (s *InMemoryStore) History(sessionID string) []core.Message {
	sess := s.lookup(sessionID)
	if sess == nil {
		return nil
	}
	return sess.Messages()
}

// Delete discards the session if present.
func (s *InMemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of known sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *InMemoryStore) lookup(sessionID string) *core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// getOrCreate returns the session, allocating it under the write lock when
// absent. The fast path only takes the read lock.
func (s *InMemoryStore) getOrCreate(sessionID string) *core.Session {
	if sess := s.lookup(sessionID); sess != nil {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}
	sess := core.NewSession(sessionID)
	s.sessions[sessionID] = sess
	return sess
}

package core

import (
	"sync"
	"time"
)

// Session represents one logical conversation scoped to a duplex connection.
// It tracks an ordered, append-only message history and is safe for
// concurrent access.
//
// Contract:
//   - Append never reorders or mutates earlier messages
//   - Reads and writes on one session are serialized, so a reader never sees
//     a half-appended message
//   - Messages and Window return defensive copies
type Session struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	mu       sync.RWMutex
	messages []Message
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Created: now, Updated: now}
}

// Append adds a message to the end of the history updating the Updated timestamp.
func (s *Session) Append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	s.Updated = time.Now()
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Messages returns a copy of the full history.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Window returns a copy of the last min(k, Len()) messages in append order.
// A non-positive k yields an empty window.
func (s *Session) Window(k int) []Message {
	if k <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.messages) - k
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// SessionStore owns per-session conversation histories keyed by session id.
//
// Implementations must serialize reads and writes within a session while
// allowing different sessions to proceed independently. Sessions are created
// lazily on first Append. There is no persistence guarantee: histories live
// for the lifetime of the process unless explicitly deleted.
type SessionStore interface {
	// Append creates the session if absent and appends the message.
	Append(sessionID string, m Message) error
	// Context renders the last k messages, or "" for unknown or empty sessions.
	Context(sessionID string, k int) string
	// History returns a copy of the full history (nil for unknown sessions).
	History(sessionID string) []Message
	// Delete discards a session. Unknown ids are ignored.
	Delete(sessionID string)
	// Len returns the number of known sessions.
	Len() int
}

// Package session holds per-user conversation state. Sessions live only in
// process memory and are lost on restart by design.
package session

import "sync"

const (
	// RoleUser marks a history entry written by the user.
	RoleUser = "user"
	// RoleAssistant marks a history entry written by the agent.
	RoleAssistant = "assistant"

	// maxHistoryEntries bounds history to the most recent 20 exchanges.
	maxHistoryEntries = 40
)

// Entry is one turn of the conversation history.
type Entry struct {
	Role    string
	Content string
}

// Session is one user's conversation continuity state. Fields are guarded by
// a mutex: a user's messages normally arrive in order, but a second message
// racing an in-flight first one mutates the same session from another
// goroutine. The outcome stays last-writer-wins; the lock only keeps the
// mutation itself safe.
type Session struct {
	mu       sync.Mutex
	userID   int64
	remoteID string
	history  []Entry
}

// newSession creates an empty session with no remote session id.
func newSession(userID int64) *Session {
	return &Session{
		userID:  userID,
		history: make([]Entry, 0),
	}
}

// UserID returns the owning user's identifier.
func (s *Session) UserID() int64 {
	return s.userID
}

// RemoteID returns the gateway session id, or "" before the first reply.
func (s *Session) RemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remoteID
}

// SetRemoteID stores the gateway session id for continuity.
func (s *Session) SetRemoteID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remoteID = id
}

// Append records one completed exchange and evicts the oldest entries once
// the history exceeds its bound.
func (s *Session) Append(userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Entry{Role: RoleUser, Content: userText},
		Entry{Role: RoleAssistant, Content: assistantText},
	)
	if len(s.history) > maxHistoryEntries {
		s.history = s.history[len(s.history)-maxHistoryEntries:]
	}
}

// History returns a copy of the conversation history, oldest first.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Entry(nil), s.history...)
}

// HistoryCount returns the number of history entries.
func (s *Session) HistoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.history)
}

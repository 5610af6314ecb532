package session

import "sync"

// Store is the in-memory session map, keyed by Telegram user id. The map is
// guarded here; each Session guards its own fields. A second message from
// the same user racing the first is accepted last-writer-wins.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the user's session if one exists.
func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	return sess, ok
}

// GetOrCreate returns the user's session, lazily creating an empty one.
func (s *Store) GetOrCreate(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := newSession(userID)
	s.sessions[userID] = sess
	return sess
}

// Delete removes the user's session.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

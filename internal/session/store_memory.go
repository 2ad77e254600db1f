package session

import (
	"context"
	"sync"

	"fedvault/pkg/platform/sentinel"
)

// MemoryStore is the in-memory session holder used by every protocol
// instance. State is instance-owned; nothing is shared across instances.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put installs a session, refusing while a non-terminal one is active.
func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && !s.current.Terminal {
		return sentinel.ErrConflict
	}
	copied := *sess
	s.current = &copied
	return nil
}

// Get returns a copy of the active session.
func (s *MemoryStore) Get(_ context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.current
	return &copied, nil
}

// Update applies fn to the active session under the lock. Used by the state
// machine to record the username and bearer token as the flow progresses.
func (s *MemoryStore) Update(_ context.Context, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return sentinel.ErrNotFound
	}
	fn(s.current)
	return nil
}

// MarkTerminal flags the active session as finished.
func (s *MemoryStore) MarkTerminal(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return sentinel.ErrNotFound
	}
	s.current.Terminal = true
	return nil
}

// Clear removes the active session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

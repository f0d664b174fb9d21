package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// Data is lost on restart; an interrupted wizard is simply started again.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Key]Session
	ttl      time.Duration
	now      func() time.Time
	swept    time.Time
}

// NewMemoryStore creates a store. Sessions idle longer than ttl read as
// absent; ttl <= 0 keeps them until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[Key]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get implements Store. Sessions are values, so callers get a copy. An
// expired session is removed.
func (s *MemoryStore) Get(ctx context.Context, key Key) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, false
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, key)
		return Session{}, false
	}
	return sess, true
}

// Save implements Store. Once per ttl it also drops sessions of users who
// never came back.
func (s *MemoryStore) Save(ctx context.Context, key Key, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ttl > 0 && now.Sub(s.swept) >= s.ttl {
		for k, old := range s.sessions {
			if s.expired(old, now) {
				delete(s.sessions, k)
			}
		}
		s.swept = now
	}

	if sess.StartedAt.IsZero() {
		sess.StartedAt = now
	}
	sess.UpdatedAt = now
	s.sessions[key] = sess
}

func (s *MemoryStore) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
}

// Len returns the number of stored sessions, including expired ones not yet
// removed.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)

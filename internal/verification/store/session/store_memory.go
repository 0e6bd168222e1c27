package session

import (
	"context"
	"sync"
	"time"

	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
	"pkdconsole/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map with per-entry expiry. Suitable for
// single-instance deployments and tests; distributed deployments use the
// Redis store.
type InMemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[id.SessionID]memoryEntry
}

type memoryEntry struct {
	session   *models.Session
	expiresAt time.Time
}

// NewInMemoryStore creates an in-memory session store with DefaultTTL.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreTTL(DefaultTTL)
}

// NewInMemoryStoreTTL creates an in-memory session store with a custom TTL.
func NewInMemoryStoreTTL(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		ttl:      ttl,
		sessions: make(map[id.SessionID]memoryEntry),
	}
}

func (s *InMemoryStore) Save(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Store a copy so later service-side mutation cannot alias store state.
	s.sessions[sess.ID] = memoryEntry{
		session:   sess.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	return entry.session.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, sentinel.ErrNotFound
	}

	sess := entry.session.Clone()
	if err := fn(sess); err != nil {
		return nil, err
	}
	s.sessions[sessionID] = memoryEntry{
		session:   sess.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return sess, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

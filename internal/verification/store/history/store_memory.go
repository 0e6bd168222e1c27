package history

import (
	"context"
	"sync"

	"pkdconsole/internal/verification/models"
)

// InMemoryStore keeps history in a bounded slice, newest first.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	cap     int
}

const defaultCap = 1000

// NewInMemoryStore creates a memory-backed history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cap: defaultCap}
}

func (s *InMemoryStore) Record(_ context.Context, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]models.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context, limit int) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]models.HistoryEntry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}

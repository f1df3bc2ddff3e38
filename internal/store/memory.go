package store

import (
	"errors"
	"sync"

	"github.com/i474232898/quickcheck/internal/covid"
)

var (
	// ErrNotFound is returned when no plan has been saved yet.
	ErrNotFound = errors.New("no refresh plan stored")
)

// MemoryStore is a concurrency-safe holder of the latest refresh plan.
// Superseded plans are discarded; no history is kept.
type MemoryStore struct {
	mu sync.RWMutex

	latest *covid.RefreshPlan
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SavePlan replaces the stored plan. A plan whose snapshot was captured
// before the stored one is stale and is dropped; SavePlan then returns false.
func (s *MemoryStore) SavePlan(plan covid.RefreshPlan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil && plan.Snapshot.CapturedAt.Before(s.latest.Snapshot.CapturedAt) {
		return false
	}

	s.latest = &plan
	return true
}

// GetLatest returns the most recently saved plan.
func (s *MemoryStore) GetLatest() (covid.RefreshPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return covid.RefreshPlan{}, ErrNotFound
	}
	return *s.latest, nil
}

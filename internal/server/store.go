package server

import (
	"sync"

	"github.com/coinboard/coinboard/internal/currency"
)

// Store holds the latest price snapshot in memory. Identifiers are 1-based
// positions into the snapshot, assigned on Replace; they are only as stable
// as the upstream listing order.
type Store struct {
	mu   sync.RWMutex
	rows []currency.Detail
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new snapshot, assigning each row its position.
func (s *Store) Replace(rows []currency.Detail) {
	snapshot := make([]currency.Detail, len(rows))
	copy(snapshot, rows)
	for i := range snapshot {
		snapshot[i].ID = currency.ID(i + 1)
	}

	s.mu.Lock()
	s.rows = snapshot
	s.mu.Unlock()
}

// List returns the current snapshot in listing order.
func (s *Store) List() []currency.Detail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]currency.Detail, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// Get returns the row at position id, or false when id is outside the
// snapshot.
func (s *Store) Get(id currency.ID) (currency.Detail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !id.Valid() || int(id) > len(s.rows) {
		return currency.Detail{}, false
	}
	return s.rows[int(id)-1], true
}

// Len returns the snapshot size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

package store

import (
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// Store holds the current Record Store snapshot together with the fetch
// generation that produced it. Fetches are numbered by NextGeneration; only
// the result of the latest one may be committed, so a slow response to an
// older request can never overwrite newer state.
//
// Store is not safe for concurrent use; the owning view serializes access.
type Store struct {
	records    []model.CostRecord
	generation uint64
	committed  uint64
	loaded     bool
}

// New returns an empty store that has never loaded.
func New() *Store {
	return &Store{}
}

// Records returns the current snapshot. Callers must not modify it.
func (s *Store) Records() []model.CostRecord {
	return s.records
}

// Len returns the number of records in the snapshot.
func (s *Store) Len() int {
	return len(s.records)
}

// Loaded reports whether any fetch has been committed.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Generation returns the number of the most recently started fetch.
func (s *Store) Generation() uint64 {
	return s.generation
}

// CommittedGeneration returns the generation of the current snapshot.
func (s *Store) CommittedGeneration() uint64 {
	return s.committed
}

// NextGeneration starts a new fetch and returns its number. Every earlier
// generation becomes stale.
func (s *Store) NextGeneration() uint64 {
	s.generation++
	return s.generation
}

// IsCurrent reports whether gen is the latest started fetch.
func (s *Store) IsCurrent(gen uint64) bool {
	return gen == s.generation
}

// Commit replaces the snapshot with records fetched by gen. It returns false
// and leaves the store untouched when gen is stale.
func (s *Store) Commit(gen uint64, records []model.CostRecord) bool {
	if !s.IsCurrent(gen) {
		return false
	}
	s.records = records
	s.committed = gen
	s.loaded = true
	return true
}

// Reset discards the snapshot, as when the view is left. Generation
// numbering continues so in-flight fetches stay stale.
func (s *Store) Reset() {
	s.records = nil
	s.committed = 0
	s.loaded = false
}

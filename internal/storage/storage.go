// Package storage keeps recently resolved records in memory for the API.
package storage

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// DefaultCapacity bounds the history when New is given zero.
const DefaultCapacity = 500

type ResolutionStore struct {
	records  map[string]*biblio.Record
	order    []string
	capacity int
	mu       sync.RWMutex
}

// New returns a store that keeps at most capacity records, evicting the
// oldest first.
func New(capacity int) *ResolutionStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResolutionStore{
		records:  make(map[string]*biblio.Record),
		capacity: capacity,
	}
}

// Add stores rec, assigning it an ID if it has none, and returns the ID.
func (s *ResolutionStore) Add(rec *biblio.Record) string {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec

	for len(s.order) > s.capacity {
		delete(s.records, s.order[0])
		s.order = s.order[1:]
	}
	return rec.ID
}

func (s *ResolutionStore) Get(id string) (*biblio.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.records[id]
	return rec, exists
}

// List returns every stored record, newest first.
func (s *ResolutionStore) List() []*biblio.Record {
	s.mu.RLock()
	result := make([]*biblio.Record, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ResolvedAt.Equal(result[j].ResolvedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].ResolvedAt.After(result[j].ResolvedAt)
	})
	return result
}

// Delete removes id and reports whether it was stored.
func (s *ResolutionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; !exists {
		return false
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

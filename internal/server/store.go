package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/table"
)

// demoPrefix addresses the bundled datasets, e.g. demo-marks.
const demoPrefix = "demo-"

// ErrDatasetNotFound is returned for an unknown dataset id.
var ErrDatasetNotFound = errors.New("dataset not found")

// DefaultMaxDatasets bounds the uploads a Store keeps.
const DefaultMaxDatasets = 64

// Store keeps uploaded tables in memory by id. Stored tables are never
// mutated; Get hands out clones. When full, the oldest upload is dropped and
// its id stops resolving.
type Store struct {
	limit int

	mu     sync.RWMutex
	tables map[string]*table.Table
	order  []string
}

// NewStore creates an empty store holding at most limit tables. Zero or less
// means DefaultMaxDatasets.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultMaxDatasets
	}
	return &Store{limit: limit, tables: map[string]*table.Table{}}
}

// Put stores t under a fresh id.
func (s *Store) Put(t *table.Table) string {
	id := uuid.NewString()
	s.mu.Lock()
	for len(s.order) >= s.limit {
		delete(s.tables, s.order[0])
		s.order = s.order[1:]
	}
	s.tables[id] = t
	s.order = append(s.order, id)
	s.mu.Unlock()
	return id
}

// Get returns a copy of the table with the given id. Demo ids are served
// from the bundled datasets.
func (s *Store) Get(id string) (*table.Table, error) {
	if name, ok := strings.CutPrefix(id, demoPrefix); ok {
		t, err := dataset.Demo(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
		}
		return t, nil
	}
	s.mu.RLock()
	t, ok := s.tables[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return t.Clone(), nil
}

// Len reports the number of uploaded tables.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

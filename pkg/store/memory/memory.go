// Package memory implements an in-memory entity store, used in tests and
// when the service runs with the "memory" backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// Store keeps entities in a map keyed by URI. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*entity.Entity
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

func New() *Store {
	return &Store{entities: make(map[string]*entity.Entity)}
}

func (s *Store) Lookup(_ context.Context, id entity.Identifier) (*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id.URI()]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) Create(_ context.Context, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[e.URI]; ok {
		return store.ErrConflict
	}
	cp := *e
	s.entities[e.URI] = &cp
	return nil
}

func (s *Store) Update(_ context.Context, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[e.URI]; !ok {
		return store.ErrNotFound
	}
	cp := *e
	s.entities[e.URI] = &cp
	return nil
}

func (s *Store) List(_ context.Context, namespace string) ([]*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entity.Entity
	for _, e := range s.entities {
		if namespace == "" || e.Namespace == namespace {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out, nil
}

// Len reports the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

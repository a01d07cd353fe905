// Package memory provides the in-memory storage backend.
// It is intended for local development and tests; data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/parlor/parlor/internal/storage"
)

// Hooks configure a Store for one entity type. Build materializes a full
// entity from its creation input, Merge applies the non-zero fields of a
// patch, ID extracts the entity id, and Conflicts (optional) enforces a
// uniqueness rule atomically with Create.
type Hooks[T any, S any, F storage.Matcher[T]] struct {
	Build     func(input S, id string, now time.Time) T
	Merge     func(current T, patch S, now time.Time) T
	ID        func(T) string
	Conflicts func(existing T, input S) bool
}

// Store is a mutex-guarded slice-backed implementation of
// storage.Resource. Entities are kept in insertion order.
type Store[T any, S any, F storage.Matcher[T]] struct {
	mu    sync.RWMutex
	rows  []T
	hooks Hooks[T, S, F]
}

// NewStore creates an empty in-memory store with the given hooks.
func NewStore[T any, S any, F storage.Matcher[T]](hooks Hooks[T, S, F]) *Store[T, S, F] {
	return &Store[T, S, F]{hooks: hooks}
}

// Create assigns an id and timestamps and appends the entity.
// The uniqueness check and the insert happen under one lock, so duplicate
// creates cannot race past each other.
func (s *Store[T, S, F]) Create(ctx context.Context, input S) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.hooks.Conflicts != nil {
		for _, row := range s.rows {
			if s.hooks.Conflicts(row, input) {
				return zero, storage.ErrConflict
			}
		}
	}

	entity := s.hooks.Build(input, storage.NewID(), time.Now().UTC())
	s.rows = append(s.rows, entity)
	return entity, nil
}

// Find returns the first entity matching the filter.
func (s *Store[T, S, F]) Find(ctx context.Context, filter F) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if filter.Match(row) {
			return row, nil
		}
	}
	var zero T
	return zero, storage.ErrNotFound
}

// FindAll returns every matching entity in insertion order.
func (s *Store[T, S, F]) FindAll(ctx context.Context, filter F) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]T, 0)
	for _, row := range s.rows {
		if filter.Match(row) {
			matches = append(matches, row)
		}
	}
	return matches, nil
}

// Get returns the entity with the given id.
func (s *Store[T, S, F]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if s.hooks.ID(row) == id {
			return row, nil
		}
	}
	var zero T
	return zero, storage.ErrNotFound
}

// Update merges the patch into the stored entity and refreshes UpdatedAt.
// The entity keeps its position, so insertion order is stable across
// updates.
func (s *Store[T, S, F]) Update(ctx context.Context, id string, patch S) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.rows {
		if s.hooks.ID(row) == id {
			updated := s.hooks.Merge(row, patch, time.Now().UTC())
			s.rows[i] = updated
			return updated, nil
		}
	}
	var zero T
	return zero, storage.ErrNotFound
}

// Delete removes the entity and returns it. Repeating a delete for the
// same id yields ErrNotFound, never a fault.
func (s *Store[T, S, F]) Delete(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.rows {
		if s.hooks.ID(row) == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return row, nil
		}
	}
	var zero T
	return zero, storage.ErrNotFound
}

// Len reports the number of stored entities.
func (s *Store[T, S, F]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Package storage defines the generic CRUD contract shared by every
// storage backend. Implementations are selected at startup and must not
// be swapped per request.
package storage

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// Common storage errors.
var (
	// ErrNotFound indicates the requested entity does not exist.
	// It is an expected outcome for lookups and deletes, not a fault.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict indicates a unique constraint was violated.
	ErrConflict = errors.New("unique constraint violation")

	// ErrUnavailable indicates the backing store could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Matcher evaluates a partial-entity filter against a full entity.
// The zero value of a filter matches everything.
type Matcher[T any] interface {
	Match(T) bool
}

// Resource is the capability set every backend exposes for one entity
// type T, its creation input S (T minus generated id and timestamps),
// and its filter type F.
//
// All mutating operations are durable before they return. Find and
// FindAll use exact equality on populated filter fields and preserve
// insertion order; an empty FindAll result is not an error.
type Resource[T any, S any, F Matcher[T]] interface {
	// Create assigns a fresh id and timestamps, persists the entity,
	// and returns it in full.
	Create(ctx context.Context, input S) (T, error)

	// Find returns the first entity matching the filter, or ErrNotFound.
	Find(ctx context.Context, filter F) (T, error)

	// FindAll returns every matching entity in insertion order.
	FindAll(ctx context.Context, filter F) ([]T, error)

	// Get returns the entity with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)

	// Update merges the non-zero fields of patch into the stored entity,
	// refreshes UpdatedAt, and returns the result, or ErrNotFound.
	// CreatedAt is never touched.
	Update(ctx context.Context, id string, patch S) (T, error)

	// Delete removes the entity and returns it, or ErrNotFound if absent.
	// Deleting a missing id is safe to repeat.
	Delete(ctx context.Context, id string) (T, error)
}

// NewID returns a fresh entity id. ULIDs sort lexicographically by
// creation time, so id order follows insertion order.
func NewID() string {
	return ulid.Make().String()
}

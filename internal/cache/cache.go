// Package cache provides the response cache: serialized responses keyed
// by request path and caller, with coarse path-prefix invalidation.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds how long a cached response may be replayed.
const DefaultTTL = 5 * time.Minute

// ErrCacheMiss indicates no entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// Entry is a stored response: the original status code and body are
// replayed verbatim on a hit.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Store is the response cache contract. Implementations are shared
// process-wide and must be safe for concurrent use.
type Store interface {
	// GetResponse returns the entry for the key, or ErrCacheMiss.
	GetResponse(ctx context.Context, key string) (*Entry, error)

	// SetResponse stores an entry under the key with the given TTL.
	SetResponse(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// InvalidatePrefix removes every entry whose key starts with prefix.
	// Invalidation is deliberately coarse: a chat mutation clears all
	// cached reads under that chat's path, siblings included.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Package ratelimit provides fixed-window request limiting keyed by
// client identity.
package ratelimit

import (
	"context"
	"time"
)

// Default limiter settings.
const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

// Result describes the outcome of a limit check.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter counts requests per key in discrete, non-overlapping windows.
// The counter resets entirely at each window boundary; the burst that
// allows around a boundary is an accepted property of fixed windows.
type Limiter interface {
	// Allow records a request for the key and reports whether it fits
	// within the current window.
	Allow(ctx context.Context, key string) (*Result, error)
}

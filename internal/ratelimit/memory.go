package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window tracks one key's counter inside the current fixed window.
type window struct {
	count   int64
	startAt time.Time
}

// MemoryLimiter is a process-local Limiter. Counters live in a shared
// map, so all access is mutex-guarded.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int64
	size    time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window.
func NewMemoryLimiter(limit int, size time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if size <= 0 {
		size = DefaultWindow
	}
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   int64(limit),
		size:    size,
		now:     time.Now,
	}
}

// Allow increments the key's counter, resetting it when the window has
// elapsed.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.size {
		w = &window{startAt: now}
		l.windows[key] = w
	}

	w.count++
	if w.count > l.limit {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: l.size - now.Sub(w.startAt),
		}, nil
	}

	return &Result{Allowed: true, Remaining: l.limit - w.count}, nil
}

var _ Limiter = (*MemoryLimiter)(nil)

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryEntry pairs a stored response with its expiry deadline.
type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// Memory is a process-local Store for development and tests.
// The map is shared by every request, so all access is mutex-guarded.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// GetResponse returns the entry for the key, or ErrCacheMiss.
// Expired entries are dropped lazily on read.
func (m *Memory) GetResponse(ctx context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(stored.expiresAt) {
		delete(m.entries, key)
		return nil, ErrCacheMiss
	}

	entry := stored.entry
	entry.Body = append([]byte(nil), stored.entry.Body...)
	return &entry, nil
}

// SetResponse stores an entry under the key with the given TTL.
func (m *Memory) SetResponse(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		entry: Entry{
			Status:      entry.Status,
			ContentType: entry.ContentType,
			Body:        append([]byte(nil), entry.Body...),
		},
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (m *Memory) InvalidatePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Len reports the number of live entries, for tests.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ Store = (*Memory)(nil)

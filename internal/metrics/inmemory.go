package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CacheHits          uint64
	CacheMisses        uint64
	CacheInvalidations uint64
	AuthFailures       uint64
	RateLimited        uint64
	UsersRegistered    uint64
	ChatsCreated       uint64
	MessagesPosted     uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	cacheHits          uint64
	cacheMisses        uint64
	cacheInvalidations uint64
	authFailures       uint64
	rateLimited        uint64
	usersRegistered    uint64
	chatsCreated       uint64
	messagesPosted     uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:          atomic.LoadUint64(&m.cacheHits),
		CacheMisses:        atomic.LoadUint64(&m.cacheMisses),
		CacheInvalidations: atomic.LoadUint64(&m.cacheInvalidations),
		AuthFailures:       atomic.LoadUint64(&m.authFailures),
		RateLimited:        atomic.LoadUint64(&m.rateLimited),
		UsersRegistered:    atomic.LoadUint64(&m.usersRegistered),
		ChatsCreated:       atomic.LoadUint64(&m.chatsCreated),
		MessagesPosted:     atomic.LoadUint64(&m.messagesPosted),
	}
}

// IncCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncCacheHit() { atomic.AddUint64(&m.cacheHits, 1) }

// IncCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncCacheMiss() { atomic.AddUint64(&m.cacheMisses, 1) }

// IncCacheInvalidation increments the invalidation counter.
func (m *InMemoryRecorder) IncCacheInvalidation() { atomic.AddUint64(&m.cacheInvalidations, 1) }

// IncAuthFailure increments the auth failure counter.
func (m *InMemoryRecorder) IncAuthFailure() { atomic.AddUint64(&m.authFailures, 1) }

// IncRateLimited increments the rate limited counter.
func (m *InMemoryRecorder) IncRateLimited() { atomic.AddUint64(&m.rateLimited, 1) }

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() { atomic.AddUint64(&m.usersRegistered, 1) }

// IncChatCreated increments the chat creation counter.
func (m *InMemoryRecorder) IncChatCreated() { atomic.AddUint64(&m.chatsCreated, 1) }

// IncMessagePosted increments the message counter.
func (m *InMemoryRecorder) IncMessagePosted() { atomic.AddUint64(&m.messagesPosted, 1) }

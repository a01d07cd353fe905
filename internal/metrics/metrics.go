// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Response cache
	IncCacheHit()
	IncCacheMiss()
	IncCacheInvalidation()

	// Middleware pipeline
	IncAuthFailure()
	IncRateLimited()

	// Domain events
	IncUserRegistered()
	IncChatCreated()
	IncMessagePosted()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

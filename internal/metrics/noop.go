package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCacheHit is a no-op.
func (n *NoopRecorder) IncCacheHit() {}

// IncCacheMiss is a no-op.
func (n *NoopRecorder) IncCacheMiss() {}

// IncCacheInvalidation is a no-op.
func (n *NoopRecorder) IncCacheInvalidation() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncChatCreated is a no-op.
func (n *NoopRecorder) IncChatCreated() {}

// IncMessagePosted is a no-op.
func (n *NoopRecorder) IncMessagePosted() {}

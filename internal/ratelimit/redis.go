package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces limiter counters in Redis.
const rateLimitKeyPrefix = "ratelimit:"

// fixedWindowScript atomically increments the window counter and stamps
// the window TTL on first use, so count and expiry can never diverge.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_ms = tonumber(ARGV[1])

	local current = redis.call('INCR', key)
	if current == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window_ms)
		ttl = window_ms
	end

	return {current, ttl}
`)

// RedisLimiter is a Limiter backed by Redis, shared across replicas.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter creates a limiter allowing limit requests per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

// Allow increments the key's window counter and checks the threshold.
// Redis errors fail open: a broken limiter backend must not take the
// API down with it.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	values, err := fixedWindowScript.Run(ctx, l.client,
		[]string{rateLimitKeyPrefix + key},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return &Result{Allowed: true, Remaining: l.limit}, nil
	}

	count := values[0]
	ttl := time.Duration(values[1]) * time.Millisecond

	if count > l.limit {
		return &Result{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return &Result{Allowed: true, Remaining: l.limit - count, RetryAfter: 0}, nil
}

var _ Limiter = (*RedisLimiter)(nil)

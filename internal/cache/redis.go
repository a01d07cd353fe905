package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// responseKeyPrefix namespaces response entries in Redis.
const responseKeyPrefix = "response:"

// Redis is a Store backed by a Redis client. Entries survive process
// restarts and are shared across replicas.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store from a connection URL.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// Ping checks Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer the Store methods.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// GetResponse retrieves a stored response by key.
func (r *Redis) GetResponse(ctx context.Context, key string) (*Entry, error) {
	result, err := r.client.HGetAll(ctx, responseKeyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	status, err := strconv.Atoi(result["status"])
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %q: %w", key, err)
	}

	return &Entry{
		Status:      status,
		ContentType: result["content_type"],
		Body:        []byte(result["body"]),
	}, nil
}

// SetResponse stores a response under the key with the given TTL.
func (r *Redis) SetResponse(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	fields := map[string]any{
		"status":       entry.Status,
		"content_type": entry.ContentType,
		"body":         entry.Body,
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, responseKeyPrefix+key, fields)
	pipe.Expire(ctx, responseKeyPrefix+key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// InvalidatePrefix deletes every entry whose key starts with prefix.
// SCAN keeps this non-blocking on large keyspaces.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, responseKeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

var _ Store = (*Redis)(nil)

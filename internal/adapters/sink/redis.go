package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of the Redis client the sink uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis stores the document under a key for low-latency readers.
type Redis struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// RedisOption applies a configuration option to Redis.
type RedisOption func(*Redis)

// WithTTL expires the stored document after d. Zero keeps it until overwritten.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = d
	}
}

// NewRedis creates a Redis sink.
func NewRedis(client RedisClient, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name identifies the sink in logs and metrics.
func (r *Redis) Name() string { return "redis" }

// Write replaces the stored document.
func (r *Redis) Write(ctx context.Context, doc []byte, _ Meta) error {
	if err := r.client.Set(ctx, r.key, doc, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis %s: %w", ErrWrite, r.key, err)
	}
	return nil
}

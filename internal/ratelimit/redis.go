package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a CounterStore backed by Redis, letting multiple instances
// share one window per key. Keys use a configurable prefix so the same Redis
// can serve other concerns.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Incr increments the counter with INCR and sets the window expiry on the
// first hit only, so the window is fixed rather than sliding.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	fullKey := s.prefix + ":" + key

	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		s.client.Expire(ctx, fullKey, window)
	}

	ttl, err := s.client.TTL(ctx, fullKey).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return int(count), time.Now().Add(ttl), nil
}

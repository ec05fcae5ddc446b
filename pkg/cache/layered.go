package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LayeredCache keeps a short-lived in-process copy in front of Redis. Reads
// that Redis cannot serve because it is unreachable fall back to a miss, so
// a Redis outage only costs a refetch.
type LayeredCache struct {
	l1    *MemoryCache
	l2    *RedisCache
	l1TTL time.Duration
}

// NewLayeredCache wraps l2. Entries promoted from Redis live in memory for
// at most l1TTL.
func NewLayeredCache(l2 *RedisCache, l1TTL time.Duration, opts ...MemoryOption) *LayeredCache {
	if l1TTL <= 0 {
		l1TTL = 5 * time.Minute
	}
	return &LayeredCache{l1: NewMemoryCache(opts...), l2: l2, l1TTL: l1TTL}
}

// Set stores value in memory even when the Redis write fails; the Redis
// error is still returned.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	l1Exp := expiration
	if l1Exp <= 0 || l1Exp > lc.l1TTL {
		l1Exp = lc.l1TTL
	}
	if err := lc.l1.Set(ctx, key, value, l1Exp); err != nil {
		return err
	}
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}

	err := lc.l2.Get(ctx, key, dest)
	switch {
	case err == nil:
		_ = lc.l1.Set(ctx, key, dest, lc.l1TTL)
		return nil
	case errors.Is(err, ErrCacheMiss):
		return err
	default:
		return fmt.Errorf("%w: redis: %v", ErrCacheMiss, err)
	}
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

// Close stops the memory sweeper and closes Redis.
func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}

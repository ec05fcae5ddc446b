package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines cache operations. Values round-trip through JSON, so Get
// decodes into any pointer a caller would json.Unmarshal into.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Backends accepted by New.
const (
	BackendNone    = "none"
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendLayered = "layered"
)

// Config selects and sizes a backend.
type Config struct {
	Backend    string
	MaxEntries int
	// L1TTL bounds how long the layered backend keeps entries promoted
	// from Redis in memory.
	L1TTL time.Duration
	Redis RedisConfig
}

// New builds the Service for cfg.Backend. Redis backed caches ping the
// server before returning.
func New(ctx context.Context, cfg Config) (Service, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return Nop{}, nil
	case BackendMemory:
		return NewMemoryCache(WithMaxEntries(cfg.MaxEntries)), nil
	case BackendRedis, BackendLayered:
		rc, err := NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if cfg.Backend == BackendRedis {
			return rc, nil
		}
		return NewLayeredCache(rc, cfg.L1TTL, WithMaxEntries(cfg.MaxEntries)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key joins prefix and params with ':'.
func Key(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		fmt.Fprintf(&b, ":%v", param)
	}
	return b.String()
}

// Nop never stores anything; every Get misses.
type Nop struct{}

func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Get(context.Context, string, interface{}) error { return ErrCacheMiss }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) Close() error { return nil }

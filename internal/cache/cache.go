package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque values under string keys with a TTL. Patterns use
// Redis glob syntax ("feed:*").
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
	Close() error
}

package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from a namespace and arbitrary parts.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// CacheService is the TTL keyed primitive the Store writes through. A
// non-positive ttl passed to Set must be a no-op.
type CacheService interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

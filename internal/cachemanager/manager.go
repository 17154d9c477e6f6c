package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values of one kind under string keys. Implementations
// must be safe for concurrent use.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Flush(ctx context.Context) error
	Len() int
}

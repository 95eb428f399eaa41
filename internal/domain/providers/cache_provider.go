package providers

import (
	"context"
	"time"
)

// CacheProvider is the read-through cache used for the snake catalog. The
// search pipeline itself never caches; only slow-changing catalog reads go
// through this interface.
type CacheProvider interface {
	// Get retrieves a value from cache. A miss is an error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with the given time to live
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

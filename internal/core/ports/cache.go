// internal/core/ports/cache.go
package ports

import (
	"context"
	"strings"
	"time"
)

// CacheKeyPrefix namespaces cache keys by the data they hold
type CacheKeyPrefix string

// CachePrefixInventory holds the derived inventory views
const CachePrefixInventory CacheKeyPrefix = "inventory"

// BuildCacheKey joins prefix and parts with ':'
func BuildCacheKey(prefix CacheKeyPrefix, parts ...string) string {
	return strings.Join(append([]string{string(prefix)}, parts...), ":")
}

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	DeletePattern(ctx context.Context, pattern string) error

	// GetOrSet reads key into dest, calling fetch and storing its result on a miss
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	Ping(ctx context.Context) error
}

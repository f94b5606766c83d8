// internal/core/services/types.go
package services

import (
	"time"

	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

const (
	defaultHistoryLimit      = 50
	maxHistoryLimit          = 500
	defaultLowStockThreshold = 5
	defaultCacheTTL          = 30 * time.Second
)

// Options carries the optional collaborators and tunables of InventoryService.
// Nil collaborators are skipped.
type Options struct {
	Cache     ports.CacheRepository
	Publisher ports.EventPublisher
	Alerts    ports.AlertNotifier

	// Clock returns the current time; defaults to time.Now in UTC
	Clock func() time.Time

	LowStockThreshold int

	// CacheTTL bounds how stale a cached summary or stats view can be. Commits
	// invalidate the cache, but a read that fetched before a commit may store
	// its result after the invalidation, and expiring-soon and expired counts
	// move with the clock. Either can be served for up to one TTL.
	CacheTTL time.Duration

	Location string
}

func (o *Options) applyDefaults() {
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	if o.LowStockThreshold <= 0 {
		o.LowStockThreshold = defaultLowStockThreshold
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
}

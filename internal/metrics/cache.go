package metrics

import (
	"context"
	"time"

	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/store"
)

// metricsStore defines the database operations needed by CacheWrapper.
// This interface allows for easier testing without requiring a full store.Store.
type metricsStore interface {
	CountLiveAccessTokens() (int64, error)
	CountClientsByActive(active bool) (int64, error)
	CountUsersByField(field string, value any) (int64, error)
}

// CacheWrapper provides a read-through cache for gauge metrics data.
// It queries the database on cache miss and updates the cache for subsequent
// requests, which keeps the periodic gauge job cheap when several instances
// share one Redis-backed cache.
type CacheWrapper struct {
	store metricsStore
	cache cache.CacheWithFetch[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store *store.Store, cache cache.CacheWithFetch[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// getCountWithCache retrieves a count using the cache-aside pattern.
func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func() (int64, error),
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return fetchFunc()
		},
	)
}

// GetLiveAccessTokenCount retrieves the count of live access-token ledger rows.
func (m *CacheWrapper) GetLiveAccessTokenCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(
		ctx,
		"counts:access_tokens",
		ttl,
		m.store.CountLiveAccessTokens,
	)
}

// GetActiveClientCount retrieves the count of active registered clients.
func (m *CacheWrapper) GetActiveClientCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(
		ctx,
		"counts:clients",
		ttl,
		func() (int64, error) {
			return m.store.CountClientsByActive(true)
		},
	)
}

// GetActiveUserCount retrieves the count of active user accounts.
func (m *CacheWrapper) GetActiveUserCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(
		ctx,
		"counts:users",
		ttl,
		func() (int64, error) {
			return m.store.CountUsersByField("is_active", true)
		},
	)
}

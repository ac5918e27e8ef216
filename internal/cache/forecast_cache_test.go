package cache

import (
	"context"
	"testing"

	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryForecastCacheIsScoped(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryForecastCache()
	store := domain.StoreScope(2)

	require.NoError(t, c.Set(ctx, domain.AllStores(), &domain.ForecastResult{ProductID: 1, Horizon: 14}))
	require.NoError(t, c.Set(ctx, store, &domain.ForecastResult{ProductID: 1, Horizon: 7}))

	all, ok, err := c.Get(ctx, domain.AllStores(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 14, all.Horizon)

	require.NoError(t, c.InvalidateScope(ctx, store))
	_, ok, _ = c.Get(ctx, store, 1)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, domain.AllStores(), 1)
	assert.True(t, ok)

	require.NoError(t, c.InvalidateAll(ctx))
	_, ok, _ = c.Get(ctx, domain.AllStores(), 1)
	assert.False(t, ok)
}

func TestNoopForecastCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNoopForecastCache()
	require.NoError(t, c.Set(ctx, domain.AllStores(), &domain.ForecastResult{ProductID: 1}))
	_, ok, err := c.Get(ctx, domain.AllStores(), 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestForecastKeys(t *testing.T) {
	assert.Equal(t, "forecast:all:7", buildForecastKey(domain.AllStores(), 7))
	assert.Equal(t, "forecast:store:3:7", buildForecastKey(domain.StoreScope(3), 7))
	assert.Equal(t, "forecast:store:3:", scopePrefix(domain.StoreScope(3)))
}

func TestDisabledCacheFallsBackToMemory(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &memoryForecastCache{}, c)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

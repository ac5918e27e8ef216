package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastKeyPrefix = "forecast"

// ForecastCache holds forecast results per (scope, product).
type ForecastCache interface {
	Get(ctx context.Context, scope domain.Scope, productID int64) (*domain.ForecastResult, bool, error)
	Set(ctx context.Context, scope domain.Scope, result *domain.ForecastResult) error
	InvalidateScope(ctx context.Context, scope domain.Scope) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type memoryForecastCache struct {
	mu      sync.RWMutex
	results map[string]map[int64]*domain.ForecastResult
}

type noopForecastCache struct{}

// NewForecastCache returns a redis cache when enabled, otherwise an
// in-process one.
func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return NewMemoryForecastCache(), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewMemoryForecastCache() ForecastCache {
	return &memoryForecastCache{results: make(map[string]map[int64]*domain.ForecastResult)}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, scope domain.Scope, productID int64) (*domain.ForecastResult, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(scope, productID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.ForecastResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &result, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, scope domain.Scope, result *domain.ForecastResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(scope, result.ProductID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateScope(ctx context.Context, scope domain.Scope) error {
	return deleteKeysWithPrefix(ctx, c.client, scopePrefix(scope), scanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix+":", scanBatchSize)
}

func (c *memoryForecastCache) Get(ctx context.Context, scope domain.Scope, productID int64) (*domain.ForecastResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.results[scope.Key()][productID]
	return res, ok, nil
}

func (c *memoryForecastCache) Set(ctx context.Context, scope domain.Scope, result *domain.ForecastResult) error {
	if result == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.results[scope.Key()]
	if !ok {
		bucket = make(map[int64]*domain.ForecastResult)
		c.results[scope.Key()] = bucket
	}
	bucket[result.ProductID] = result
	return nil
}

func (c *memoryForecastCache) InvalidateScope(ctx context.Context, scope domain.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, scope.Key())
	return nil
}

func (c *memoryForecastCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]map[int64]*domain.ForecastResult)
	return nil
}

func (n *noopForecastCache) Get(ctx context.Context, scope domain.Scope, productID int64) (*domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, scope domain.Scope, result *domain.ForecastResult) error {
	return nil
}

func (n *noopForecastCache) InvalidateScope(ctx context.Context, scope domain.Scope) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func scopePrefix(scope domain.Scope) string {
	return fmt.Sprintf("%s:%s:", forecastKeyPrefix, scope.Key())
}

func buildForecastKey(scope domain.Scope, productID int64) string {
	return scopePrefix(scope) + strconv.FormatInt(productID, 10)
}

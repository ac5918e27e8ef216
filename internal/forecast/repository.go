package forecast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/andresuchdata/locallens/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const modelKeyFormat = "%sdemand_model_product_%d.json"

// ModelKey is the artifact key for a product's model.
func ModelKey(prefix string, productID int64) string {
	return fmt.Sprintf(modelKeyFormat, prefix, productID)
}

// ModelCache holds loaded models for the life of the process.
type ModelCache struct {
	mu     sync.RWMutex
	models map[int64]Model
}

func NewModelCache() *ModelCache {
	return &ModelCache{models: make(map[int64]Model)}
}

func (c *ModelCache) Get(productID int64) (Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[productID]
	return m, ok
}

func (c *ModelCache) Put(productID int64, m Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[productID] = m
}

func (c *ModelCache) Evict(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.models, productID)
}

func (c *ModelCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[int64]Model)
}

func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Decoder turns artifact bytes into a model.
type Decoder func(data []byte) (Model, error)

func decodeAdditive(data []byte) (Model, error) {
	return DecodeModel(bytes.NewReader(data))
}

// ModelProvider resolves a product's model; ok is false when none is usable.
type ModelProvider interface {
	Get(ctx context.Context, productID int64) (Model, bool)
}

// ModelRepository loads model artifacts from object storage. Load failures
// are reported as unavailable and never cached.
type ModelRepository struct {
	store   storage.ObjectStorage
	prefix  string
	cache   *ModelCache
	decode  Decoder
	loading singleflight.Group
}

type RepositoryOption func(*ModelRepository)

// WithDecoder overrides the artifact decoder.
func WithDecoder(d Decoder) RepositoryOption {
	return func(r *ModelRepository) { r.decode = d }
}

func NewModelRepository(store storage.ObjectStorage, prefix string, cache *ModelCache, opts ...RepositoryOption) *ModelRepository {
	if cache == nil {
		cache = NewModelCache()
	}
	r := &ModelRepository{
		store:  store,
		prefix: prefix,
		cache:  cache,
		decode: decodeAdditive,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ModelRepository) Get(ctx context.Context, productID int64) (Model, bool) {
	if m, ok := r.cache.Get(productID); ok {
		metrics.RecordModelLoad(metrics.LoadCached)
		return m, true
	}

	v, err, _ := r.loading.Do(strconv.FormatInt(productID, 10), func() (interface{}, error) {
		if m, ok := r.cache.Get(productID); ok {
			return m, nil
		}
		m, err := r.load(ctx, productID)
		if err != nil {
			return nil, err
		}
		r.cache.Put(productID, m)
		return m, nil
	})
	if err != nil {
		metrics.RecordModelLoad(metrics.LoadUnavailable)
		event := log.Warn()
		if errors.Is(err, storage.ErrObjectNotFound) {
			event = log.Debug()
		}
		event.Err(err).Int64("product_id", productID).Msg("model unavailable")
		return nil, false
	}

	metrics.RecordModelLoad(metrics.LoadLoaded)
	return v.(Model), true
}

func (r *ModelRepository) load(ctx context.Context, productID int64) (Model, error) {
	key := ModelKey(r.prefix, productID)
	data, err := r.store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", key, err)
	}
	m, err := r.decode(data)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", key, err)
	}
	return m, nil
}

// Evict drops one cached model so the next Get reloads it.
func (r *ModelRepository) Evict(productID int64) {
	r.cache.Evict(productID)
}

// Reset drops every cached model.
func (r *ModelRepository) Reset() {
	r.cache.Reset()
}

// Available lists product ids that have an artifact in storage.
func (r *ModelRepository) Available(ctx context.Context) ([]int64, error) {
	objects, err := r.store.ListObjects(ctx, r.prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, r.prefix+"demand_model_product_")
		if name == obj.Key || !strings.HasSuffix(name, ".json") {
			continue
		}
		if id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Publish validates an artifact and stores it for productID, replacing any
// cached copy.
func (r *ModelRepository) Publish(ctx context.Context, productID int64, data []byte) error {
	if _, err := r.decode(data); err != nil {
		return fmt.Errorf("invalid model artifact for product %d: %w", productID, err)
	}
	key := ModelKey(r.prefix, productID)
	if err := r.store.UploadObject(ctx, key, data); err != nil {
		return fmt.Errorf("upload model artifact %s: %w", key, err)
	}
	r.cache.Evict(productID)
	log.Info().Int64("product_id", productID).Str("key", key).Msg("model published")
	return nil
}

// Fetch copies the stored artifact of productID to destPath.
func (r *ModelRepository) Fetch(ctx context.Context, productID int64, destPath string) error {
	key := ModelKey(r.prefix, productID)
	if err := r.store.DownloadObject(ctx, key, destPath); err != nil {
		return fmt.Errorf("download model artifact %s: %w", key, err)
	}
	return nil
}

var _ ModelProvider = (*ModelRepository)(nil)

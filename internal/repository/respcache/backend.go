// Package respcache caches search service responses in a key-value store.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/db"
	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
)

// DefaultKeyPrefix namespaces cache keys when no prefix is configured.
const DefaultKeyPrefix = "protsearch:"

const (
	endpointSearch  = "search"
	endpointSuggest = "suggest"
)

// backend is the wrapped search service (ISP).
type backend interface {
	Search(ctx context.Context, p query.Params) ([]hit.Result, error)
	Suggest(ctx context.Context, q string) (suggestion.Set, error)
}

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedBackend caches search and suggest responses with a TTL.
// Cache failures are logged and bypassed; only backend errors reach the caller.
type CachedBackend struct {
	inner      backend
	store      store
	ttl        time.Duration
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Config holds the decorator settings.
type Config struct {
	TTL       time.Duration
	KeyPrefix string
	// CacheTotal is a counter vec with labels "endpoint" and "result" ("hit"/"miss").
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// New creates a caching decorator.
func New(inner backend, s store, cfg Config) *CachedBackend {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedBackend{
		inner:      inner,
		store:      s,
		ttl:        cfg.TTL,
		prefix:     prefix,
		cacheTotal: cfg.CacheTotal,
		logger:     log,
	}
}

// Search returns cached results or calls the inner backend.
// Errors are never cached.
func (c *CachedBackend) Search(ctx context.Context, p query.Params) ([]hit.Result, error) {
	p.Query = query.Normalize(p.Query)
	key := c.cacheKey(endpointSearch, p.Encode())

	var cached []hit.Result
	if c.getFromCache(ctx, key, &cached) {
		c.hit(ctx, endpointSearch)
		if cached == nil {
			cached = []hit.Result{}
		}
		return cached, nil
	}
	c.incCache(endpointSearch, "miss")

	results, err := c.inner.Search(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("cached search: %w", err)
	}

	c.putToCache(ctx, key, results)
	return results, nil
}

// Suggest returns a cached suggestion set or calls the inner backend.
func (c *CachedBackend) Suggest(ctx context.Context, q string) (suggestion.Set, error) {
	q = query.Normalize(q)
	key := c.cacheKey(endpointSuggest, q)

	var cached suggestion.Set
	if c.getFromCache(ctx, key, &cached) {
		c.hit(ctx, endpointSuggest)
		if cached == nil {
			cached = suggestion.Set{}
		}
		return cached, nil
	}
	c.incCache(endpointSuggest, "miss")

	set, err := c.inner.Suggest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("cached suggest: %w", err)
	}

	c.putToCache(ctx, key, set)
	return set, nil
}

func (c *CachedBackend) hit(ctx context.Context, endpoint string) {
	c.incCache(endpoint, "hit")
	domain.UsageFromContext(ctx).AddCacheHit()
}

func (c *CachedBackend) incCache(endpoint, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(endpoint, result).Inc()
	}
}

func (c *CachedBackend) cacheKey(endpoint, canonical string) string {
	h := sha256.Sum256([]byte(canonical))
	return c.prefix + "resp:" + endpoint + ":" + hex.EncodeToString(h[:])
}

func (c *CachedBackend) getFromCache(ctx context.Context, key string, out any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if len(data) == 0 {
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Failed to parse cached response", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedBackend) putToCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}

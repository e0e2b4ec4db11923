package protsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/db"
	dbRedis "github.com/kailas-cloud/protsearch/internal/db/redis"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/metrics"
	"github.com/kailas-cloud/protsearch/internal/repository/respcache"
	"github.com/kailas-cloud/protsearch/internal/transport/upstream"
	searchuc "github.com/kailas-cloud/protsearch/internal/usecase/search"
	"github.com/kailas-cloud/protsearch/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 5 * time.Minute
)

// Client is the protsearch SDK entry point.
type Client struct {
	upstream *upstream.Client
	store    db.Store // nil without a cache
	backend  searchuc.Backend
	svc      *searchuc.Service
	logger   *zap.Logger
}

// New creates a Client. When a cache is configured it connects to it and waits until it is ready.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.baseURL == "" {
		return nil, errors.New("protsearch: base url required (use WithBaseURL)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	up, err := upstream.NewClient(upstream.Config{
		BaseURL:    cfg.baseURL,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
		Logger:     cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("protsearch: %w", err)
	}

	if len(cfg.cacheAddrs) == 0 {
		return wireClient(up, nil, cfg), nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePassword,
		RESP2:    cfg.cacheRESP2,
	})
	if err != nil {
		return nil, fmt.Errorf("protsearch: create cache store: %w", err)
	}
	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("protsearch: cache not ready: %w", err)
	}
	return wireClient(up, store, cfg), nil
}

func wireClient(up *upstream.Client, store db.Store, cfg *clientConfig) *Client {
	var backend searchuc.Backend = up
	if store != nil {
		ttl := cfg.cacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		backend = respcache.New(up, store, respcache.Config{
			TTL:        ttl,
			KeyPrefix:  cfg.cachePrefix,
			CacheTotal: metrics.ResponseCacheTotal,
			Logger:     cfg.logger,
		})
	}

	return &Client{
		upstream: up,
		store:    store,
		backend:  backend,
		svc:      searchuc.New(backend, cfg.maxK, cfg.logger),
		logger:   cfg.logger,
	}
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks the search service and, when configured, the cache.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.upstream.Ping(ctx); err != nil {
		return fmt.Errorf("ping search service: %w", err)
	}
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			return fmt.Errorf("ping cache: %w", err)
		}
	}
	return nil
}

// MaxK returns the upper bound accepted for the result limit.
func (c *Client) MaxK() int {
	return c.svc.MaxK()
}

// Results runs a search and returns the raw hits in service order.
// A blank query returns nil without contacting the service.
func (c *Client) Results(ctx context.Context, p Params) ([]Result, error) {
	if p.K == 0 {
		p.K = query.DefaultK
	}
	res, err := c.svc.Search(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// Search runs a search and returns display-ready rows in service order.
func (c *Client) Search(ctx context.Context, p Params) ([]Row, error) {
	res, err := c.Results(ctx, p)
	if err != nil {
		return nil, err
	}
	return hit.PresentAll(res), nil
}

// Suggest returns suggestions for a partial query. A blank query returns an empty set.
// Unlike the interactive session, service errors are returned.
func (c *Client) Suggest(ctx context.Context, q string) (Suggestions, error) {
	q = query.Normalize(q)
	if q == "" {
		return suggestion.Set{}, nil
	}
	set, err := c.backend.Suggest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return set, nil
}

// NewSession starts an interactive search session backed by this client.
// The caller must Close it.
func (c *Client) NewSession(opts SessionOptions) *Session {
	if opts.MaxK <= 0 {
		opts.MaxK = c.svc.MaxK()
	}
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	return session.New(c.svc, opts)
}

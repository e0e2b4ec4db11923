package protsearch

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	cacheAddrs    []string
	cachePassword string
	cacheRESP2    bool
	cacheTTL      time.Duration
	cachePrefix   string

	maxK   int
	logger *zap.Logger
}

// WithBaseURL sets the search service root, e.g. "http://localhost:8000". Required.
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = u
	})
}

// WithTimeout sets the per-request timeout. Default: 15s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient overrides the HTTP client used for the search service.
// WithTimeout is ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithValkey caches service responses in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheRESP2 = false
	})
}

// WithRedis caches service responses in a Redis instance.
// Servers older than Redis 6 are spoken to over RESP2.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheRESP2 = true
	})
}

// WithCacheTTL sets how long cached responses live. Default: 5m.
func WithCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = d
	})
}

// WithCachePrefix namespaces cache keys. Default: "protsearch:".
func WithCachePrefix(p string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePrefix = p
	})
}

// WithMaxK sets the upper bound accepted for the result limit. Default: 100.
func WithMaxK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxK = k
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

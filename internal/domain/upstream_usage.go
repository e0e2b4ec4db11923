package domain

import (
	"context"
	"sync/atomic"
)

type upstreamUsageKey struct{}

// UpstreamUsage collects upstream activity for a single HTTP request.
// The handler puts a pointer into the context before calling the service;
// the cache and the client record into it; the handler reads it for response headers.
type UpstreamUsage struct {
	calls     atomic.Int32
	cacheHits atomic.Int32
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *UpstreamUsage) {
	u := &UpstreamUsage{}
	return context.WithValue(ctx, upstreamUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *UpstreamUsage {
	u, _ := ctx.Value(upstreamUsageKey{}).(*UpstreamUsage)
	return u
}

// AddCall records one request sent to the search service.
func (u *UpstreamUsage) AddCall() {
	if u != nil {
		u.calls.Add(1)
	}
}

// AddCacheHit records one response served from the cache.
func (u *UpstreamUsage) AddCacheHit() {
	if u != nil {
		u.cacheHits.Add(1)
	}
}

// Calls returns the number of upstream requests.
func (u *UpstreamUsage) Calls() int {
	if u == nil {
		return 0
	}
	return int(u.calls.Load())
}

// CacheHits returns the number of cached responses.
func (u *UpstreamUsage) CacheHits() int {
	if u == nil {
		return 0
	}
	return int(u.cacheHits.Load())
}

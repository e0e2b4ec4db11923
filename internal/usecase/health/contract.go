package health

import "context"

// UpstreamPinger checks search service availability.
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks response cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

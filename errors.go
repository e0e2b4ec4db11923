package protsearch

import "github.com/kailas-cloud/protsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidParams       = domain.ErrInvalidParams
	ErrSearchFailed        = domain.ErrSearchFailed
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
	ErrUpstreamStatus      = domain.ErrUpstreamStatus
	ErrUpstreamResponse    = domain.ErrUpstreamResponse
)

// StatusError carries the HTTP status returned by the search service.
type StatusError = domain.StatusError

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "protsearch"

// Upstream search service metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests sent to the search service",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Search service request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Total search service errors",
		},
		[]string{"endpoint", "error_type"}, // transport, canceled, status, decode
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"endpoint", "result"}, // "hit" / "miss"
	)

	SessionStaleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_stale_responses_total",
			Help:      "Responses discarded because a newer request superseded them",
		},
		[]string{"endpoint"},
	)
)

var registerOnce sync.Once

// Register registers all protsearch collectors with the default registry.
// Safe to call more than once; main and tests both call it.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			UpstreamErrorsTotal,
			ResponseCacheTotal,
			SessionStaleResponsesTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,
		)
	})
}

// Package upstream talks to the external protein search service.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/metrics"
	"github.com/kailas-cloud/protsearch/internal/version"
)

// Endpoint names, used for metrics labels, span names and cache keys.
const (
	EndpointSearch  = "search"
	EndpointSuggest = "suggest"
	EndpointHealth  = "health"
)

// RequestIDHeader carries a correlation id on every upstream request.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 512

// Config holds the search service client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HealthPath string
	HTTPClient *http.Client // optional, overrides Timeout
	Logger     *zap.Logger
}

// Client is an HTTP client for the search service's /search and /suggest endpoints.
type Client struct {
	base       *url.URL
	healthPath string
	http       *http.Client
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewClient validates the base URL and creates a client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/"
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		base:       base,
		healthPath: healthPath,
		http:       httpClient,
		tracer:     otel.Tracer("protsearch-upstream"),
		logger:     log,
	}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type searchResponse struct {
	Results []hit.Result `json:"results"`
}

type suggestResponse struct {
	Results suggestion.Set `json:"results"`
}

// Search runs GET /search with the query, k and from_another_source parameters.
// Results are returned in service order.
func (c *Client) Search(ctx context.Context, p query.Params) ([]hit.Result, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.search",
		trace.WithAttributes(
			attribute.String("search.query", p.Query),
			attribute.Int("search.k", p.K),
			attribute.Bool("search.from_another_source", p.FromAnotherSource),
		),
	)
	defer span.End()

	var resp searchResponse
	if err := c.get(ctx, span, EndpointSearch, "/search", p.Encode(), &resp); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(resp.Results)))
	span.SetStatus(codes.Ok, "search completed")
	if resp.Results == nil {
		return []hit.Result{}, nil
	}
	return resp.Results, nil
}

// Suggest runs GET /suggest for the given partial query.
func (c *Client) Suggest(ctx context.Context, q string) (suggestion.Set, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.suggest",
		trace.WithAttributes(attribute.String("suggest.query", q)),
	)
	defer span.End()

	var resp suggestResponse
	if err := c.get(ctx, span, EndpointSuggest, "/suggest", url.Values{query.ParamQuery: {q}}.Encode(), &resp); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("suggest.items", resp.Results.Len()))
	span.SetStatus(codes.Ok, "suggest completed")
	if resp.Results == nil {
		return suggestion.Set{}, nil
	}
	return resp.Results, nil
}

// Ping checks that the service answers on its health path with a non-5xx status.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "upstream.ping")
	defer span.End()

	req, err := c.newRequest(ctx, c.healthPath, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "health request failed")
		return fmt.Errorf("ping: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		err := domain.NewStatusError(EndpointHealth, resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "healthy")
	return nil
}

func (c *Client) get(
	ctx context.Context, span trace.Span, endpoint, path, rawQuery string, out any,
) error {
	domain.UsageFromContext(ctx).AddCall()

	req, err := c.newRequest(ctx, path, rawQuery)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("http.request_id", req.Header.Get(RequestIDHeader)))

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		errType := "transport"
		if IsCanceled(err) {
			errType = "canceled"
		}
		c.fail(span, endpoint, errType, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Caller gave up: keep the context error visible to errors.Is.
			return fmt.Errorf("%s request: %w: %w", endpoint, ctxErr, domain.ErrUpstreamUnavailable)
		}
		return fmt.Errorf("%s request: %v: %w", endpoint, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := domain.NewStatusError(endpoint, resp.StatusCode)
		c.fail(span, endpoint, "status", status, err)
		c.logger.Debug("search service error response",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.fail(span, endpoint, "decode", status, err)
		return fmt.Errorf("decode %s response: %v: %w", endpoint, err, domain.ErrUpstreamResponse)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	return nil
}

func (c *Client) newRequest(ctx context.Context, path, rawQuery string) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, requestID(ctx))
	return req, nil
}

func (c *Client) fail(span trace.Span, endpoint, errType, status string, err error) {
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	metrics.UpstreamErrorsTotal.WithLabelValues(endpoint, errType).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, fmt.Sprintf("%s %s failed", endpoint, errType))
}

type requestIDKey struct{}

// ContextWithRequestID makes the upstream client reuse an incoming request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return ksuid.New().String()
}

// IsCanceled reports whether err came from the caller abandoning the request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

package chi

import (
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/logger"
	healthuc "github.com/kailas-cloud/protsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/protsearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Config holds the web front end settings.
type Config struct {
	Defaults query.Params
	// Flow is "submit" (search on Enter or pick) or "typeahead" (also search once typing settles).
	Flow            string
	SearchDebounce  time.Duration
	SuggestDebounce time.Duration
}

// Server implements ServerInterface.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	cfg           Config
	page          *template.Template
	static        http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates the HTTP server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	cfg Config,
	log *zap.Logger,
) (*Server, error) {
	if cfg.Defaults.K <= 0 {
		cfg.Defaults.K = query.DefaultK
	}
	if cfg.Flow == "" {
		cfg.Flow = "submit"
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = 700 * time.Millisecond
	}
	if cfg.SuggestDebounce <= 0 {
		cfg.SuggestDebounce = 300 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}

	page, err := parsePageTemplate()
	if err != nil {
		return nil, err
	}
	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}

	s := &Server{
		search: search,
		health: health,
		cfg:    cfg,
		page:   page,
		static: http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))),
		logger: log,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidParams, http.StatusBadRequest, ErrorResponseCodeInvalidParams),
		searchFailedHandler,
	}
	return s, nil
}

// Page handles GET /. URL parameters are read leniently, like a browser address bar.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query(), s.cfg.Defaults, s.search.MaxK())
	page := s.search.Page(r.Context(), p)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := s.page.Execute(w, s.pageView(page)); err != nil {
		logger.FromContext(r.Context(), s.logger).Error("render page", zap.Error(err))
	}
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query             string       `json:"query"`
	K                 int          `json:"k"`
	FromAnotherSource bool         `json:"from_another_source"`
	Results           []hit.Result `json:"results"`
	Rows              []hit.Row    `json:"rows"`
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchParams) {
	p := s.cfg.Defaults
	if params.Query != nil {
		p.Query = query.Normalize(*params.Query)
	}
	if params.K != nil {
		p.K = *params.K
	}
	if params.FromAnotherSource != nil {
		p.FromAnotherSource = *params.FromAnotherSource == "true"
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []hit.Result{}
	}
	setUsageHeaders(w, usage)

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:             p.Query,
		K:                 p.K,
		FromAnotherSource: p.FromAnotherSource,
		Results:           results,
		Rows:              hit.PresentAll(results),
	})
}

// SuggestItem is one dropdown entry with its highlight segments.
type SuggestItem struct {
	Term     string               `json:"term"`
	Payload  json.RawMessage      `json:"payload,omitempty"`
	Segments []suggestion.Segment `json:"segments"`
}

// SuggestResponse is the body of GET /api/suggest. Every category is present.
type SuggestResponse struct {
	Query   string                                 `json:"query"`
	Results map[suggestion.Category][]SuggestItem `json:"results"`
}

// Suggest handles GET /api/suggest. Upstream failures yield empty categories.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request, params SuggestParams) {
	q := ""
	if params.Query != nil {
		q = query.Normalize(*params.Query)
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	set := s.search.Suggest(ctx, q)
	setUsageHeaders(w, usage)

	resp := SuggestResponse{
		Query:   q,
		Results: make(map[suggestion.Category][]SuggestItem, len(suggestion.Categories())),
	}
	for _, c := range suggestion.Categories() {
		items := make([]SuggestItem, 0, len(set[c]))
		for _, it := range set[c] {
			items = append(items, SuggestItem{
				Term:     it.Term,
				Payload:  it.Payload,
				Segments: suggestion.Highlight(it.Term, q),
			})
		}
		resp.Results[c] = items
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Static handles GET /static/*.
func (s *Server) Static(w http.ResponseWriter, r *http.Request) {
	s.static.ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.UpstreamUsage) {
	if usage == nil {
		return
	}
	w.Header().Set("X-Upstream-Calls", strconv.Itoa(usage.Calls()))
	if hits := usage.CacheHits(); hits > 0 {
		w.Header().Set("X-Cache-Hits", strconv.Itoa(hits))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// WriteBindError answers a request whose parameters could not be bound.
func WriteBindError(w http.ResponseWriter, _ *http.Request, err error) {
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidParams, "invalid parameter "+pe.ParamName)
		return
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "invalid request")
}

// safeDomainMessage returns a message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrSearchFailed) {
		return domain.SearchFailedMessage
	}
	if errors.Is(err, domain.ErrInvalidParams) {
		// Validation messages name only the parameter and its bounds.
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// searchFailedHandler maps every upstream failure to one 502 with the generic message.
func searchFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrSearchFailed) {
		return false
	}
	var se *domain.StatusError
	if errors.As(err, &se) {
		w.Header().Set("X-Upstream-Status", strconv.Itoa(se.StatusCode))
	}
	writeError(w, http.StatusBadGateway, ErrorResponseCodeSearchFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

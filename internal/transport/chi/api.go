package chi

import (
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is the machine-readable error code in JSON error bodies.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest    ErrorResponseCode = "bad_request"
	ErrorResponseCodeInvalidParams ErrorResponseCode = "invalid_params"
	ErrorResponseCodeUnauthorized  ErrorResponseCode = "unauthorized"
	ErrorResponseCodeSearchFailed  ErrorResponseCode = "search_failed"
	ErrorResponseCodeInternalError ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchParams defines parameters for GET /api/search.
type SearchParams struct {
	Query             *string `form:"query,omitempty" json:"query,omitempty"`
	K                 *int    `form:"k,omitempty" json:"k,omitempty"`
	FromAnotherSource *string `form:"from_another_source,omitempty" json:"from_another_source,omitempty"`
}

// SuggestParams defines parameters for GET /api/suggest.
type SuggestParams struct {
	Query *string `form:"query,omitempty" json:"query,omitempty"`
}

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// Page renders the search page (GET /).
	Page(w http.ResponseWriter, r *http.Request)
	// Search proxies a search (GET /api/search).
	Search(w http.ResponseWriter, r *http.Request, params SearchParams)
	// Suggest proxies a suggestion lookup (GET /api/suggest).
	Suggest(w http.ResponseWriter, r *http.Request, params SuggestParams)
	// HealthCheck reports component health (GET /health).
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics exposes prometheus metrics (GET /metrics).
	Metrics(w http.ResponseWriter, r *http.Request)
	// Static serves page assets (GET /static/*).
	Static(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a query parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       gochi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every operation of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = gochi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := &serverInterfaceWrapper{handler: si, errorHandler: errorHandler}

	r.Get("/", si.Page)
	r.Get("/api/search", wrapper.Search)
	r.Get("/api/suggest", wrapper.Suggest)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	r.Get("/static/*", si.Static)
	return r
}

type serverInterfaceWrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// Search binds SearchParams from the query string.
func (siw *serverInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "query", q, &params.Query); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", q, &params.K); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "k", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "from_another_source", q, &params.FromAnotherSource); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "from_another_source", Err: err})
		return
	}

	siw.handler.Search(w, r, params)
}

// Suggest binds SuggestParams from the query string.
func (siw *serverInterfaceWrapper) Suggest(w http.ResponseWriter, r *http.Request) {
	var params SuggestParams

	if err := runtime.BindQueryParameter("form", true, false, "query", r.URL.Query(), &params.Query); err != nil {
		siw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}

	siw.handler.Suggest(w, r, params)
}

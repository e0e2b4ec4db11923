package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/logger"
)

// Service runs searches and suggestion lookups against the backend.
type Service struct {
	backend Backend
	maxK    int
	logger  *zap.Logger
}

// New creates a search service. maxK bounds the accepted result limit (0 means query.MaxK).
func New(backend Backend, maxK int, log *zap.Logger) *Service {
	if maxK <= 0 {
		maxK = query.MaxK
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: backend, maxK: maxK, logger: log}
}

// MaxK returns the configured upper bound for k.
func (s *Service) MaxK() int {
	return s.maxK
}

// Search returns results for p in service order.
// A blank query returns nil without contacting the backend.
func (s *Service) Search(ctx context.Context, p query.Params) ([]hit.Result, error) {
	if p.Blank() {
		return nil, nil
	}
	if err := p.Validate(s.maxK); err != nil {
		return nil, err
	}

	results, err := s.backend.Search(ctx, p)
	if err != nil {
		log := logger.FromContext(ctx, s.logger)
		if errors.Is(err, context.Canceled) {
			// A newer request superseded this one.
			log.Debug("search canceled", zap.String("query", p.Query), zap.Int("k", p.K))
			return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
		}
		log.Error("search failed",
			zap.String("query", p.Query),
			zap.Int("k", p.K),
			zap.Bool("from_another_source", p.FromAnotherSource),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}
	return results, nil
}

// Suggest returns suggestions for a partial query. Failures are logged and
// yield an empty set: the dropdown simply stays empty.
func (s *Service) Suggest(ctx context.Context, q string) suggestion.Set {
	q = query.Normalize(q)
	if q == "" {
		return suggestion.Set{}
	}

	set, err := s.backend.Suggest(ctx, q)
	if err != nil {
		log := logger.FromContext(ctx, s.logger)
		if errors.Is(err, context.Canceled) {
			log.Debug("suggest canceled", zap.String("query", q))
			return suggestion.Set{}
		}
		log.Warn("suggest failed",
			zap.String("query", q),
			zap.Error(err),
		)
		return suggestion.Set{}
	}
	return set
}

// Page is the server-rendered state of the search view.
type Page struct {
	Params  query.Params
	MaxK    int
	State   hit.ListState
	Message string
	Rows    []hit.Row
}

// Page runs the search for p (if any) and returns the view state.
func (s *Service) Page(ctx context.Context, p query.Params) Page {
	page := Page{Params: p, MaxK: s.maxK}

	results, err := s.Search(ctx, p)
	errMsg := ""
	if err != nil {
		errMsg = domain.SearchFailedMessage
	}

	page.Rows = hit.PresentAll(results)
	page.State = hit.StateFor(false, errMsg, len(page.Rows))
	page.Message = page.State.Message()
	return page
}

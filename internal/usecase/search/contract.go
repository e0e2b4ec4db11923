package search

import (
	"context"

	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
)

// Backend is the external search service, optionally behind a response cache.
type Backend interface {
	Search(ctx context.Context, p query.Params) ([]hit.Result, error)
	Suggest(ctx context.Context, q string) (suggestion.Set, error)
}

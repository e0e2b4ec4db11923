package session

import (
	"context"

	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
)

// Searcher runs searches and suggestion lookups (implemented by usecase/search.Service).
type Searcher interface {
	Search(ctx context.Context, p query.Params) ([]hit.Result, error)
	Suggest(ctx context.Context, q string) suggestion.Set
}

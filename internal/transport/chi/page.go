package chi

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	searchuc "github.com/kailas-cloud/protsearch/internal/usecase/search"
)

//go:embed templates/*.html static/*
var assets embed.FS

type categoryView struct {
	Key   suggestion.Category
	Label string
}

type pageView struct {
	Title             string
	Query             string
	K                 int
	MaxK              int
	FromAnotherSource bool
	State             hit.ListState
	Message           string
	Rows              []hit.Row
	Flow              string
	SearchDebounceMs  int64
	SuggestDebounceMs int64
	Categories        []categoryView
}

func parsePageTemplate() (*template.Template, error) {
	t, err := template.New("page.html").ParseFS(assets, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return t, nil
}

func (s *Server) pageView(p searchuc.Page) pageView {
	cats := suggestion.Categories()
	views := make([]categoryView, len(cats))
	for i, c := range cats {
		views[i] = categoryView{Key: c, Label: c.Label()}
	}
	return pageView{
		Title:             "CST Search",
		Query:             p.Params.Query,
		K:                 p.Params.K,
		MaxK:              p.MaxK,
		FromAnotherSource: p.Params.FromAnotherSource,
		State:             p.State,
		Message:           p.Message,
		Rows:              p.Rows,
		Flow:              s.cfg.Flow,
		SearchDebounceMs:  s.cfg.SearchDebounce.Milliseconds(),
		SuggestDebounceMs: s.cfg.SuggestDebounce.Milliseconds(),
		Categories:        views,
	}
}

package protsearch

import (
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/usecase/session"
)

// Params are the search parameters: query text, result limit and data source.
type Params = query.Params

// Result is a raw search hit as returned by the service.
type Result = hit.Result

// Row is a display-ready search hit.
type Row = hit.Row

// ListState describes what a result list shows.
type ListState = hit.ListState

// Category is a suggestion group.
type Category = suggestion.Category

// Suggestions maps each category to its suggested items.
type Suggestions = suggestion.Set

// SuggestionItem is a single suggested term with its highlighted segments.
type SuggestionItem = suggestion.Item

// SuggestionEntry is a suggestion in dropdown order, tagged with its category.
type SuggestionEntry = suggestion.Entry

// Segment is a run of suggestion text that either matches the query or not.
type Segment = suggestion.Segment

// Session is an interactive search session.
type Session = session.Session

// SessionOptions configures a Session.
type SessionOptions = session.Options

// SessionState is a snapshot of a Session.
type SessionState = session.State

// Flow selects when a Session searches.
type Flow = session.Flow

// Session flows.
const (
	FlowSubmit    = session.FlowSubmit
	FlowTypeAhead = session.FlowTypeAhead
)

// Suggestion categories in display order.
const (
	CategoryProteins   = suggestion.Proteins
	CategoryGenes      = suggestion.Genes
	CategoryOrganisms  = suggestion.Organisms
	CategoryUniProtIDs = suggestion.UniProtIDs
	CategoryHGNCIDs    = suggestion.HGNCIDs
	CategorySynonyms   = suggestion.Synonyms
)

// Result list states.
const (
	ListLoading = hit.StateLoading
	ListError   = hit.StateError
	ListEmpty   = hit.StateEmpty
	ListResults = hit.StateResults
)

// Present formats a raw hit for display.
func Present(r Result) Row {
	return hit.Present(r)
}

// Highlight splits term into segments marking case-insensitive occurrences of q.
func Highlight(term, q string) []Segment {
	return suggestion.Highlight(term, q)
}

// ParseFlow maps "submit" or "typeahead" to a Flow. An empty string means FlowSubmit.
func ParseFlow(s string) (Flow, error) {
	return session.ParseFlow(s)
}

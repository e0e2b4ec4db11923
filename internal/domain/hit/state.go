package hit

import "github.com/kailas-cloud/protsearch/internal/domain"

// ListState is what the results list shows.
type ListState string

const (
	// StateLoading means a search is in flight.
	StateLoading ListState = "loading"
	// StateError means the last search failed.
	StateError ListState = "error"
	// StateEmpty means there is nothing to show.
	StateEmpty ListState = "empty"
	// StateResults means rows are available.
	StateResults ListState = "results"
)

// Results list messages.
const (
	MessageLoading = "Searching..."
	MessageEmpty   = "No results found."
)

// StateFor resolves the list state. Loading wins over error, error over empty.
func StateFor(loading bool, errMsg string, n int) ListState {
	switch {
	case loading:
		return StateLoading
	case errMsg != "":
		return StateError
	case n == 0:
		return StateEmpty
	default:
		return StateResults
	}
}

// Message returns the text shown for a non-results state.
func (s ListState) Message() string {
	switch s {
	case StateLoading:
		return MessageLoading
	case StateError:
		return domain.SearchFailedMessage
	case StateEmpty:
		return MessageEmpty
	default:
		return ""
	}
}

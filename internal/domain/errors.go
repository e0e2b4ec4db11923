package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams signals query parameters outside the accepted range.
	ErrInvalidParams = errors.New("invalid query parameters")
	// ErrSearchFailed signals that a search could not be completed.
	ErrSearchFailed = errors.New("search failed")
	// ErrUpstreamUnavailable signals a transport-level failure talking to the search service.
	ErrUpstreamUnavailable = errors.New("search service unavailable")
	// ErrUpstreamStatus signals a non-success HTTP status from the search service.
	ErrUpstreamStatus = errors.New("search service returned an error status")
	// ErrUpstreamResponse signals a response body that could not be decoded.
	ErrUpstreamResponse = errors.New("search service returned a malformed response")
)

// SearchFailedMessage is the only search error text shown to users.
const SearchFailedMessage = "An error occurred while searching."

// StatusError wraps ErrUpstreamStatus with the HTTP status returned by the search service.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrUpstreamStatus.Error(), e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// NewStatusError creates an upstream status error.
func NewStatusError(endpoint string, statusCode int) error {
	return &StatusError{Endpoint: endpoint, StatusCode: statusCode}
}

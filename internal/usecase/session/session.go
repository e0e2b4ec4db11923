// Package session drives one interactive search view: typed input, debounced
// suggestions, committed query parameters and the results list.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/debounce"
	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/metrics"
)

// Flow selects when typed input turns into a search.
type Flow string

const (
	// FlowSubmit searches only on Submit or Pick; typing fetches suggestions.
	FlowSubmit Flow = "submit"
	// FlowTypeAhead also searches after the input has been idle for SearchDebounce.
	FlowTypeAhead Flow = "typeahead"
)

// ParseFlow maps a config value to a Flow.
func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case FlowSubmit, FlowTypeAhead:
		return Flow(s), nil
	case "":
		return FlowSubmit, nil
	default:
		return "", fmt.Errorf("unknown flow %q", s)
	}
}

// Default input timings.
const (
	DefaultSearchDebounce  = 700 * time.Millisecond
	DefaultSuggestDebounce = 300 * time.Millisecond
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrNoSuggestion is returned by Pick for an index outside the dropdown.
	ErrNoSuggestion = errors.New("no such suggestion")
)

// Options configures a Session.
type Options struct {
	Flow            Flow
	SearchDebounce  time.Duration
	SuggestDebounce time.Duration
	MaxK            int
	Defaults        query.Params
	Logger          *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Flow == "" {
		o.Flow = FlowSubmit
	}
	if o.SearchDebounce <= 0 {
		o.SearchDebounce = DefaultSearchDebounce
	}
	if o.SuggestDebounce <= 0 {
		o.SuggestDebounce = DefaultSuggestDebounce
	}
	if o.MaxK <= 0 {
		o.MaxK = query.MaxK
	}
	if o.Defaults.K <= 0 {
		o.Defaults.K = query.DefaultK
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// State is a snapshot of the view. Slices are owned by the snapshot.
type State struct {
	ID     string
	Input  string
	Params query.Params

	Loading bool
	Error   string
	Results []hit.Result
	Rows    []hit.Row
	List    hit.ListState
	Message string

	SuggestLoading bool
	DropdownOpen   bool
	Suggestions    []suggestion.Entry
}

// Session is safe for concurrent use. Network calls run in background goroutines;
// only the newest search and the newest suggest response are ever applied.
type Session struct {
	svc  Searcher
	opts Options
	log  *zap.Logger

	searchDeb  *debounce.Debouncer
	suggestDeb *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	id       string
	closed   bool
	listener func(State)
	location string

	input   string
	params  query.Params
	loading bool
	errMsg  string
	results []hit.Result

	suggestLoading bool
	dropdownOpen   bool
	entries        []suggestion.Entry

	searchSeq     uint64
	searchCancel  context.CancelFunc
	suggestSeq    uint64
	suggestCancel context.CancelFunc
	// suggestGen changes on every typed input and every dropdown reset; a
	// scheduled fetch only runs if it still matches.
	suggestGen uint64
}

// New creates a Session with default parameters and no committed query.
func New(svc Searcher, opts Options) *Session {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	id := ksuid.New().String()
	return &Session{
		svc:        svc,
		opts:       opts,
		log:        opts.Logger.With(zap.String("session_id", id)),
		searchDeb:  debounce.New(opts.SearchDebounce),
		suggestDeb: debounce.New(opts.SuggestDebounce),
		ctx:        ctx,
		cancel:     cancel,
		id:         id,
		params:     opts.Defaults,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnChange registers a listener for state snapshots. It is called with the
// session lock held and must not call back into the Session.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Load reads query, k and from_another_source from URL values. A non-blank
// query triggers one search with exactly those parameters.
func (s *Session) Load(v url.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	p := query.FromValues(v, s.opts.Defaults, s.opts.MaxK)
	s.params = p
	s.input = p.Query
	if p.Blank() {
		s.notifyLocked()
		return nil
	}
	s.location = p.Encode()
	s.startSearchLocked(p)
	return nil
}

// Type updates the input text. It schedules a suggestion fetch and, in the
// type-ahead flow, a search once the input settles.
func (s *Session) Type(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.typeLocked(input)
	return nil
}

func (s *Session) typeLocked(input string) {
	s.input = input
	q := query.Normalize(input)
	if q == "" {
		s.suggestDeb.Cancel()
		s.dropSuggestionsLocked()
	} else {
		s.suggestGen++
		gen := s.suggestGen
		s.suggestDeb.Trigger(func() { s.fetchSuggestions(q, gen) })
	}

	if s.opts.Flow == FlowTypeAhead {
		s.searchDeb.Trigger(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed || query.Normalize(s.input) == s.params.Query {
				return
			}
			s.commitLocked(s.input)
		})
	}

	s.notifyLocked()
}

// Submit commits q immediately, closing the dropdown.
func (s *Session) Submit(q string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.submitLocked(q)
	return nil
}

func (s *Session) submitLocked(q string) {
	s.input = q
	s.searchDeb.Cancel()
	s.suggestDeb.Cancel()
	s.dropSuggestionsLocked()
	s.commitLocked(q)
}

// Pick submits the term of the dropdown entry at index (display order).
func (s *Session) Pick(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(s.entries) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuggestion, index, len(s.entries))
	}

	s.submitLocked(s.entries[index].Item.Term)
	return nil
}

// SetK changes the result limit and re-runs the committed query, if any.
func (s *Session) SetK(k int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	p := s.params
	p.K = k
	if err := p.Validate(s.opts.MaxK); err != nil {
		return err
	}
	s.applyParamsLocked(p)
	return nil
}

// SetFromAnotherSource toggles the data source and re-runs the committed query, if any.
func (s *Session) SetFromAnotherSource(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	p := s.params
	p.FromAnotherSource = on
	s.applyParamsLocked(p)
	return nil
}

// Location returns the encoded URL parameters of the last committed state.
// It is empty until a query has been loaded or committed.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// State returns a snapshot of the view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops the debouncers, cancels in-flight requests and waits for them to return.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.searchDeb.Stop()
	s.suggestDeb.Stop()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) applyParamsLocked(p query.Params) {
	s.params = p
	if p.Blank() {
		s.notifyLocked()
		return
	}
	s.location = p.Encode()
	s.startSearchLocked(p)
}

// commitLocked makes q the committed query. A blank query clears the results
// without a request.
func (s *Session) commitLocked(q string) {
	p := s.params.WithQuery(q)
	s.params = p
	s.location = p.Encode()

	if p.Blank() {
		s.searchSeq++
		if s.searchCancel != nil {
			s.searchCancel()
			s.searchCancel = nil
		}
		s.loading = false
		s.errMsg = ""
		s.results = nil
		s.notifyLocked()
		return
	}
	s.startSearchLocked(p)
}

func (s *Session) startSearchLocked(p query.Params) {
	s.searchSeq++
	seq := s.searchSeq
	if s.searchCancel != nil {
		s.searchCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.searchCancel = cancel

	s.loading = true
	s.errMsg = ""
	s.notifyLocked()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		results, err := s.svc.Search(ctx, p)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || seq != s.searchSeq {
			metrics.SessionStaleResponsesTotal.WithLabelValues("search").Inc()
			return
		}
		s.searchCancel = nil
		s.loading = false
		if err != nil {
			s.log.Debug("session search failed", zap.String("query", p.Query), zap.Error(err))
			s.errMsg = domain.SearchFailedMessage
			s.results = nil
		} else {
			s.results = results
		}
		s.notifyLocked()
	}()
}

// fetchSuggestions runs on the suggest debouncer's timer goroutine. The timer
// can fire just before a Submit, Pick or newer Type takes the lock, so gen is
// checked again here.
func (s *Session) fetchSuggestions(q string, gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.suggestGen {
		s.mu.Unlock()
		return
	}
	s.suggestSeq++
	seq := s.suggestSeq
	if s.suggestCancel != nil {
		s.suggestCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.suggestCancel = cancel
	s.suggestLoading = true
	s.notifyLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	set := s.svc.Suggest(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.suggestSeq {
		metrics.SessionStaleResponsesTotal.WithLabelValues("suggest").Inc()
		return
	}
	s.suggestCancel = nil
	s.suggestLoading = false
	s.entries = set.Flatten()
	s.dropdownOpen = len(s.entries) > 0
	s.notifyLocked()
}

// dropSuggestionsLocked invalidates any in-flight suggest and closes the dropdown.
func (s *Session) dropSuggestionsLocked() {
	s.suggestGen++
	s.suggestSeq++
	if s.suggestCancel != nil {
		s.suggestCancel()
		s.suggestCancel = nil
	}
	s.suggestLoading = false
	s.dropdownOpen = false
	s.entries = nil
}

func (s *Session) snapshotLocked() State {
	rows := hit.PresentAll(s.results)
	list := hit.StateFor(s.loading, s.errMsg, len(rows))
	return State{
		ID:             s.id,
		Input:          s.input,
		Params:         s.params,
		Loading:        s.loading,
		Error:          s.errMsg,
		Results:        slices.Clone(s.results),
		Rows:           rows,
		List:           list,
		Message:        list.Message(),
		SuggestLoading: s.suggestLoading,
		DropdownOpen:   s.dropdownOpen,
		Suggestions:    slices.Clone(s.entries),
	}
}

func (s *Session) notifyLocked() {
	if s.listener != nil {
		s.listener(s.snapshotLocked())
	}
}

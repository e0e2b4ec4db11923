package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/protsearch/internal/domain"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
	"github.com/kailas-cloud/protsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	m.Run()
}

// --- Mocks ---

type mockSearcher struct {
	mu       sync.Mutex
	searches []query.Params
	suggests []string
	gates    map[string]chan struct{}
	err      error
	set      suggestion.Set
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{gates: map[string]chan struct{}{}}
}

// gate makes searches for q block until the returned func is called.
func (m *mockSearcher) gate(q string) func() {
	ch := make(chan struct{})
	m.mu.Lock()
	m.gates[q] = ch
	m.mu.Unlock()
	return func() { close(ch) }
}

func (m *mockSearcher) Search(_ context.Context, p query.Params) ([]hit.Result, error) {
	m.mu.Lock()
	m.searches = append(m.searches, p)
	gate := m.gates[p.Query]
	err := m.err
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []hit.Result{{Text: p.Query + ";alias", Metadata: map[string]string{"Organism": "Homo sapiens"}}}, nil
}

func (m *mockSearcher) Suggest(_ context.Context, q string) suggestion.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggests = append(m.suggests, q)
	return m.set
}

func (m *mockSearcher) searchCalls() []query.Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]query.Params, len(m.searches))
	copy(out, m.searches)
	return out
}

func (m *mockSearcher) suggestCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.suggests))
	copy(out, m.suggests)
	return out
}

func newTestSession(t *testing.T, svc Searcher, flow Flow) *Session {
	t.Helper()
	s := New(svc, Options{
		Flow:            flow,
		SearchDebounce:  30 * time.Millisecond,
		SuggestDebounce: 20 * time.Millisecond,
	})
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func idle(s *Session) func() bool {
	return func() bool {
		st := s.State()
		return !st.Loading && !st.SuggestLoading
	}
}

// --- Tests ---

func TestLoad_SearchesWithURLParams(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	v, _ := url.ParseQuery("query=foo&k=10&from_another_source=true")
	if err := s.Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitFor(t, func() bool { return s.State().List == hit.StateResults })

	calls := m.searchCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 search call, got %d", len(calls))
	}
	if got := calls[0].Encode(); got != "query=foo&k=10&from_another_source=true" {
		t.Errorf("search params = %q", got)
	}
	if got := s.Location(); got != "query=foo&k=10&from_another_source=true" {
		t.Errorf("location = %q", got)
	}
	st := s.State()
	if st.Input != "foo" || st.Rows[0].ProteinName != "foo" {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestLoad_BlankQueryNoCall(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	v, _ := url.ParseQuery("k=7")
	if err := s.Load(v); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.searchCalls()) != 0 {
		t.Fatal("blank query must not search")
	}
	if got := s.State().Params.K; got != 7 {
		t.Errorf("k = %d, want 7", got)
	}
	if s.Location() != "" {
		t.Errorf("location should stay empty, got %q", s.Location())
	}
}

func TestSubmit_WhitespaceClearsWithoutCall(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Submit("insulin"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return s.State().List == hit.StateResults })

	if err := s.Submit("   "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st := s.State()
	if len(st.Results) != 0 || st.Error != "" || st.Loading {
		t.Errorf("expected cleared state, got %+v", st)
	}
	if st.List != hit.StateEmpty {
		t.Errorf("list = %q, want empty", st.List)
	}
	if n := len(m.searchCalls()); n != 1 {
		t.Errorf("expected only the first search call, got %d", n)
	}
}

func TestSetK_TriggersExactlyOneSearch(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Submit("foo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, idle(s))

	if err := s.SetK(25); err != nil {
		t.Fatalf("SetK: %v", err)
	}
	waitFor(t, idle(s))

	calls := m.searchCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 search calls, got %d", len(calls))
	}
	if calls[1].K != 25 || calls[1].Query != "foo" {
		t.Errorf("second call = %+v", calls[1])
	}
	if got := s.Location(); got != "query=foo&k=25&from_another_source=false" {
		t.Errorf("location = %q", got)
	}
}

func TestSetK_NoQueryNoSearch(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	if err := s.SetK(10); err != nil {
		t.Fatalf("SetK: %v", err)
	}
	if len(m.searchCalls()) != 0 {
		t.Error("no search expected without a committed query")
	}
	if s.State().Params.K != 10 {
		t.Error("k should be updated")
	}
}

func TestSetK_Invalid(t *testing.T) {
	s := newTestSession(t, newMockSearcher(), FlowSubmit)

	for _, k := range []int{0, -3, 101} {
		if err := s.SetK(k); !errors.Is(err, domain.ErrInvalidParams) {
			t.Errorf("k=%d: expected ErrInvalidParams, got %v", k, err)
		}
	}
	if s.State().Params.K != query.DefaultK {
		t.Error("invalid k must not change state")
	}
}

func TestSetFromAnotherSource_TriggersSearch(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Submit("foo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, idle(s))
	if err := s.SetFromAnotherSource(true); err != nil {
		t.Fatalf("SetFromAnotherSource: %v", err)
	}
	waitFor(t, idle(s))

	calls := m.searchCalls()
	if len(calls) != 2 || !calls[1].FromAnotherSource {
		t.Fatalf("expected second call with source toggle, got %+v", calls)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	m := newMockSearcher()
	release := m.gate("slow")
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Submit("slow"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return len(m.searchCalls()) == 1 })

	if err := s.Submit("fast"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return s.State().List == hit.StateResults })

	release()
	s.Close() // waits for the slow goroutine

	st := s.State()
	if len(st.Rows) != 1 || st.Rows[0].ProteinName != "fast" {
		t.Errorf("stale response overwrote newer results: %+v", st.Rows)
	}
}

func TestSearchError(t *testing.T) {
	m := newMockSearcher()
	m.err = errors.New("boom")
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Submit("foo"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return s.State().List == hit.StateError })

	if got := s.State().Message; got != "An error occurred while searching." {
		t.Errorf("message = %q", got)
	}
}

func TestType_DebouncesSuggestions(t *testing.T) {
	m := newMockSearcher()
	m.set = suggestion.Set{
		suggestion.Proteins: {{Term: "Insulin"}},
		suggestion.Genes:    {{Term: "INS"}},
	}
	s := newTestSession(t, m, FlowSubmit)

	for _, in := range []string{"i", "in", "ins"} {
		if err := s.Type(in); err != nil {
			t.Fatalf("Type: %v", err)
		}
	}
	waitFor(t, func() bool { return s.State().DropdownOpen })

	if calls := m.suggestCalls(); len(calls) != 1 || calls[0] != "ins" {
		t.Errorf("suggest calls = %v, want [ins]", calls)
	}
	if len(m.searchCalls()) != 0 {
		t.Error("typing must not search in submit flow")
	}

	st := s.State()
	if len(st.Suggestions) != 2 || st.Suggestions[0].Item.Term != "Insulin" || st.Suggestions[1].Item.Term != "INS" {
		t.Errorf("unexpected dropdown: %+v", st.Suggestions)
	}

	if err := s.Pick(1); err != nil {
		t.Fatalf("Pick: %v", err)
	}
	waitFor(t, idle(s))

	st = s.State()
	if st.DropdownOpen || st.Input != "INS" {
		t.Errorf("pick should close dropdown and set input: %+v", st)
	}
	if calls := m.searchCalls(); len(calls) != 1 || calls[0].Query != "INS" {
		t.Errorf("search calls = %+v", calls)
	}
}

func TestSubmit_FiredSuggestTimerDoesNotReopenDropdown(t *testing.T) {
	m := newMockSearcher()
	m.set = suggestion.Set{suggestion.Proteins: {{Term: "abcd"}}}
	s := newTestSession(t, m, FlowSubmit)

	if err := s.Type("abc"); err != nil {
		t.Fatalf("Type: %v", err)
	}

	// Hold the lock past the suggest delay so the fired timer waits on it,
	// then submit before releasing.
	s.mu.Lock()
	time.Sleep(80 * time.Millisecond)
	s.submitLocked("abc")
	s.mu.Unlock()

	waitFor(t, idle(s))
	time.Sleep(40 * time.Millisecond)

	st := s.State()
	if st.DropdownOpen || len(st.Suggestions) != 0 {
		t.Errorf("dropdown reopened after submit: %+v", st.Suggestions)
	}
	if calls := m.suggestCalls(); len(calls) != 0 {
		t.Errorf("suggest calls = %v, want none", calls)
	}
	if calls := m.searchCalls(); len(calls) != 1 || calls[0].Query != "abc" {
		t.Errorf("search calls = %+v", calls)
	}
}

func TestType_FiredSuggestTimerSupersededByNewerInput(t *testing.T) {
	m := newMockSearcher()
	m.set = suggestion.Set{suggestion.Proteins: {{Term: "abcd"}}}
	s := newTestSession(t, m, FlowSubmit)

	_ = s.Type("ab")

	s.mu.Lock()
	time.Sleep(80 * time.Millisecond)
	s.typeLocked("abc")
	s.mu.Unlock()

	waitFor(t, func() bool { return s.State().DropdownOpen })
	time.Sleep(40 * time.Millisecond)

	if calls := m.suggestCalls(); len(calls) != 1 || calls[0] != "abc" {
		t.Errorf("suggest calls = %v, want [abc]", calls)
	}
}

func TestType_BlankClosesDropdown(t *testing.T) {
	m := newMockSearcher()
	m.set = suggestion.Set{suggestion.Proteins: {{Term: "Insulin"}}}
	s := newTestSession(t, m, FlowSubmit)

	_ = s.Type("ins")
	waitFor(t, func() bool { return s.State().DropdownOpen })

	_ = s.Type("  ")
	if s.State().DropdownOpen {
		t.Error("blank input should close the dropdown")
	}
}

func TestPick_OutOfRange(t *testing.T) {
	s := newTestSession(t, newMockSearcher(), FlowSubmit)

	if err := s.Pick(0); !errors.Is(err, ErrNoSuggestion) {
		t.Errorf("expected ErrNoSuggestion, got %v", err)
	}
}

func TestTypeAhead_SearchesAfterIdle(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowTypeAhead)

	for _, in := range []string{"f", "fo", "foo"} {
		_ = s.Type(in)
	}
	waitFor(t, func() bool { return s.State().List == hit.StateResults })

	calls := m.searchCalls()
	if len(calls) != 1 || calls[0].Query != "foo" {
		t.Fatalf("expected one search for foo, got %+v", calls)
	}

	// Clearing the input clears the results without a call.
	_ = s.Type("")
	waitFor(t, func() bool { return s.State().Params.Query == "" })
	if len(m.searchCalls()) != 1 {
		t.Error("blank input must not search")
	}
	if len(s.State().Results) != 0 {
		t.Error("results should be cleared")
	}
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	m := newMockSearcher()
	s := newTestSession(t, m, FlowSubmit)

	var mu sync.Mutex
	var states []hit.ListState
	s.OnChange(func(st State) {
		mu.Lock()
		states = append(states, st.List)
		mu.Unlock()
	})

	_ = s.Submit("foo")
	waitFor(t, idle(s))

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[0] != hit.StateLoading || states[len(states)-1] != hit.StateResults {
		t.Errorf("unexpected state sequence: %v", states)
	}
}

func TestClose(t *testing.T) {
	s := New(newMockSearcher(), Options{})
	s.Close()
	s.Close()

	if err := s.Submit("foo"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Type("foo"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestParseFlow(t *testing.T) {
	if f, err := ParseFlow(""); err != nil || f != FlowSubmit {
		t.Errorf("empty flow: %v %v", f, err)
	}
	if f, err := ParseFlow("typeahead"); err != nil || f != FlowTypeAhead {
		t.Errorf("typeahead: %v %v", f, err)
	}
	if _, err := ParseFlow("instant"); err == nil {
		t.Error("expected error")
	}
}

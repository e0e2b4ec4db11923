package respcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/protsearch/internal/db"
	"github.com/kailas-cloud/protsearch/internal/domain/hit"
	"github.com/kailas-cloud/protsearch/internal/domain/query"
	"github.com/kailas-cloud/protsearch/internal/domain/suggestion"
)

type mockBackend struct {
	results      []hit.Result
	set          suggestion.Set
	err          error
	searchCalls  int
	suggestCalls int
	lastParams   query.Params
	lastSuggest  string
}

func (m *mockBackend) Search(_ context.Context, p query.Params) ([]hit.Result, error) {
	m.searchCalls++
	m.lastParams = p
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockBackend) Suggest(_ context.Context, q string) (suggestion.Set, error) {
	m.suggestCalls++
	m.lastSuggest = q
	if m.err != nil {
		return nil, m.err
	}
	return m.set, nil
}

// memStore implements the consumer interface for tests.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestCachedBackend(t *testing.T, inner *mockBackend) (*CachedBackend, *memStore) {
	t.Helper()
	ms := newMemStore()
	cb := New(inner, ms, Config{TTL: time.Minute, Logger: zap.NewNop()})
	return cb, ms
}

package testutil

import (
	"context"
	"strings"
	"sync"
)

// Call records one store query with its parameters
type Call struct {
	Query  string
	Params map[string]any
}

type readRule struct {
	substr string
	rows   []map[string]any
	err    error
}

// MockStore is a scripted graph store for tests. Read responses are matched
// by substring against the query text plus the index_name parameter, in the
// order the rules were registered.
type MockStore struct {
	mu         sync.Mutex
	rules      []readRule
	writeErr   error
	ReadCalls  []Call
	WriteCalls []Call
}

// MockStoreOption configures a MockStore
type MockStoreOption func(*MockStore)

// NewMockStore creates a mock store with the given scripted responses
func NewMockStore(opts ...MockStoreOption) *MockStore {
	store := &MockStore{}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// WithReadRows scripts rows for queries matching the substring
func WithReadRows(substr string, rows ...map[string]any) MockStoreOption {
	return func(s *MockStore) {
		s.rules = append(s.rules, readRule{substr: substr, rows: rows})
	}
}

// WithReadError scripts an error for queries matching the substring
func WithReadError(substr string, err error) MockStoreOption {
	return func(s *MockStore) {
		s.rules = append(s.rules, readRule{substr: substr, err: err})
	}
}

// WithWriteError makes every write fail with the given error
func WithWriteError(err error) MockStoreOption {
	return func(s *MockStore) {
		s.writeErr = err
	}
}

// ExecuteRead returns the first scripted response whose substring matches
// the query or its index_name parameter. Unmatched queries return no rows.
func (s *MockStore) ExecuteRead(
	_ context.Context,
	query string,
	params map[string]any,
) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReadCalls = append(s.ReadCalls, Call{Query: query, Params: params})

	key := query
	if indexName, ok := params["index_name"].(string); ok {
		key += " " + indexName
	}

	for _, rule := range s.rules {
		if strings.Contains(key, rule.substr) {
			return rule.rows, rule.err
		}
	}

	return nil, nil
}

// ExecuteWrite records the call and returns the scripted write error
func (s *MockStore) ExecuteWrite(_ context.Context, query string, params map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.WriteCalls = append(s.WriteCalls, Call{Query: query, Params: params})

	return s.writeErr
}

// MockEmbedder is a deterministic embedding provider for tests. Each vector
// encodes the input's length so distinct texts embed differently.
type MockEmbedder struct {
	Dim      int
	EmbedErr error
	Calls    []string
	mu       sync.Mutex
}

// NewMockEmbedder creates a mock embedder with the given dimensionality
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// Embed returns a deterministic vector for the text
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}

	m.Calls = append(m.Calls, text)

	vector := make([]float32, m.Dim)
	for i := range vector {
		vector[i] = float32(len(text)%7) + float32(i)
	}

	return vector, nil
}

// EmbedBatch embeds each text in order
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for _, text := range texts {
		vector, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, vector)
	}

	return vectors, nil
}

// Dimensions returns the configured dimensionality
func (m *MockEmbedder) Dimensions() int {
	return m.Dim
}

// Name identifies the mock provider
func (m *MockEmbedder) Name() string {
	return "mock"
}

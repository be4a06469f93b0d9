package datahub

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func decodeEntity(t *testing.T, raw string) *rawEntity {
	t.Helper()
	var e rawEntity
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return &e
}

// graphCall records one Execute call.
type graphCall struct {
	name string
	vars map[string]any
}

// mockGraph is a Graph answering each named query with a canned response.
type mockGraph struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	existsFn  func(ctx context.Context, urn string) (bool, error)
	calls     []graphCall
}

func (m *mockGraph) queryName(query string) string {
	for name, doc := range queries {
		if doc == query {
			return name
		}
	}
	return ""
}

func (m *mockGraph) Execute(_ context.Context, query string, vars map[string]any) (json.RawMessage, error) {
	name := m.queryName(query)

	m.mu.Lock()
	m.calls = append(m.calls, graphCall{name: name, vars: vars})
	m.mu.Unlock()

	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return json.RawMessage(m.responses[name]), nil
}

func (m *mockGraph) Exists(ctx context.Context, urn string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, urn)
	}
	return true, nil
}

func (m *mockGraph) callsTo(name string) []graphCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []graphCall
	for _, c := range m.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

var _ Graph = (*mockGraph)(nil)

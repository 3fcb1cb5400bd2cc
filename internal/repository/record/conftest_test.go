package record

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/dareg/internal/db"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/search/catalog"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// mockStore is a map-backed hash store with injectable failures.
type mockStore struct {
	hashes       map[string]map[string]string
	scanErr      error
	hgetAllErr   error
	hsetMultiErr error
	multiCalls   [][]string
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiErr != nil {
		return m.hsetMultiErr
	}
	for _, it := range items {
		_ = m.HSet(ctx, it.Key, it.Fields)
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	m.multiCalls = append(m.multiCalls, keys)
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h, err := m.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, entity.Builtin(), "dareg:"), ms
}

func rec(t *testing.T, model, id string, offset int, attrs string) entity.Record {
	t.Helper()
	v, err := value.Parse([]byte(attrs))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, _ := v.AsMap()
	r, err := entity.NewRecord(model, id, t0.Add(time.Duration(offset)*time.Minute), m)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

func typ(t *testing.T, name string) entity.Type {
	t.Helper()
	ty, ok := entity.Builtin().Lookup(name)
	if !ok {
		t.Fatalf("unknown type %s", name)
	}
	return ty
}

func compile(t *testing.T, ty entity.Type, expr string) filter.Predicate {
	t.Helper()
	if expr == "" {
		return filter.MatchAll()
	}
	v, err := value.Parse([]byte(expr))
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cat, err := catalog.Allowed(ty, nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	p, err := filter.Compile(v, cat)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return p
}

func seed(t *testing.T, repo *Repo) {
	t.Helper()
	recs := []entity.Record{
		rec(t, entity.Dataset, "d2", 1, `{"project":"p1","name":"Test B","status":"archived"}`),
		rec(t, entity.Dataset, "d1", 0, `{"project":"p1","name":"Test A","status":"active"}`),
		rec(t, entity.Dataset, "d3", 2, `{"project":"p2","name":"Other","status":"active"}`),
		rec(t, entity.Facility, "f1", 0, `{"name":"Test Facility"}`),
	}
	if err := repo.PutMany(context.Background(), recs); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
}

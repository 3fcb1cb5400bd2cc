package record

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
)

// --- Put / Get ---

func TestPut_HashLayout(t *testing.T) {
	repo, ms := newTestRepo(t)
	r := rec(t, entity.Dataset, "d1", 0, `{"project":"p1","name":"Test A"}`)

	if err := repo.Put(context.Background(), r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	h, ok := ms.hashes["dareg:rec:Dataset:d1"]
	if !ok {
		t.Fatalf("missing hash, have %v", ms.hashes)
	}
	if h["id"] != "d1" || h["parent"] != "p1" {
		t.Errorf("unexpected hash: %v", h)
	}
	if h["created"] != "2024-03-01T12:00:00Z" {
		t.Errorf("created = %q", h["created"])
	}
}

func TestPut_UnknownModel(t *testing.T) {
	repo, _ := newTestRepo(t)
	r := rec(t, "Language", "1", 0, `{}`)

	if err := repo.Put(context.Background(), r); !errors.Is(err, domain.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestGet_RoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo)

	got, err := repo.Get(context.Background(), entity.Dataset, "d2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text() != "Test B" || !got.Created().Equal(t0.Add(60e9)) {
		t.Errorf("unexpected record: %s %v", got.Text(), got.Created())
	}
	if keys := got.Attributes().Keys(); keys[0] != "project" {
		t.Errorf("attribute order not preserved: %v", keys)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	if _, err := repo.Get(context.Background(), entity.Dataset, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutMany_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiErr = errors.New("OOM")

	err := repo.PutMany(context.Background(), []entity.Record{rec(t, entity.Facility, "f1", 0, `{}`)})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- List / Execute ---

func TestList_OrderedByCreated(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo)

	recs, err := repo.List(context.Background(), entity.Dataset)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"d1", "d2", "d3"}
	if len(recs) != len(want) {
		t.Fatalf("got %d records", len(recs))
	}
	for i, id := range want {
		if recs[i].ID() != id {
			t.Errorf("recs[%d] = %s, want %s", i, recs[i].ID(), id)
		}
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name   string
		scope  permission.Scope
		filter string
		want   []string
	}{
		{"all no filter", permission.All(), "", []string{"d1", "d2", "d3"}},
		{"all with filter", permission.All(), `{"status":"active"}`, []string{"d1", "d3"}},
		{"explicit ids", permission.IDs("d2", "d3", "gone"), "", []string{"d2", "d3"}},
		{"ids and filter", permission.IDs("d1", "d2"), `{"name":{"$regex":"test b"}}`, []string{"d2"}},
		{"empty scope", permission.IDs(), "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newTestRepo(t)
			seed(t, repo)
			ds := typ(t, entity.Dataset)

			recs, err := repo.Execute(context.Background(), ds, tt.scope, compile(t, ds, tt.filter))
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(recs) != len(tt.want) {
				t.Fatalf("got %d records, want %v", len(recs), tt.want)
			}
			for i, id := range tt.want {
				if recs[i].ID() != id {
					t.Errorf("recs[%d] = %s, want %s", i, recs[i].ID(), id)
				}
			}
		})
	}
}

func TestExecute_ExplicitScopeSkipsScan(t *testing.T) {
	repo, ms := newTestRepo(t)
	seed(t, repo)
	ms.scanErr = errors.New("scan must not be called")
	ds := typ(t, entity.Dataset)

	recs, err := repo.Execute(context.Background(), ds, permission.IDs("d1"), compile(t, ds, ""))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(recs) != 1 || len(ms.multiCalls) != 1 || ms.multiCalls[0][0] != "dareg:rec:Dataset:d1" {
		t.Errorf("unexpected fetch: %v", ms.multiCalls)
	}
}

func TestExecute_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.scanErr = errors.New("connection lost")
	ds := typ(t, entity.Dataset)

	if _, err := repo.Execute(context.Background(), ds, permission.All(), compile(t, ds, "")); err == nil {
		t.Fatal("expected error")
	}
}

// --- Refs ---

func TestRefs(t *testing.T) {
	repo, _ := newTestRepo(t)
	seed(t, repo)

	refs, err := repo.Refs(context.Background(), entity.Dataset)
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	got := make(map[string]string, len(refs))
	for _, r := range refs {
		got[r.ID] = r.ParentID
	}
	if got["d1"] != "p1" || got["d2"] != "p1" || got["d3"] != "p2" || len(got) != 3 {
		t.Errorf("unexpected refs: %v", got)
	}

	refs, err = repo.Refs(context.Background(), entity.Facility)
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 1 || refs[0].ParentID != "" {
		t.Errorf("facility refs: %v", refs)
	}
}

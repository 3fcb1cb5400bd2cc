package record

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/dareg/internal/db"
	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
)

// store is the consumer interface for records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// typeLookup resolves entity types for parent links.
type typeLookup interface {
	Lookup(name string) (entity.Type, bool)
}

// Repo stores records as hashes keyed <prefix>rec:<Model>:<id> and
// evaluates search predicates over them.
type Repo struct {
	store  store
	types  typeLookup
	prefix string
}

// New creates a record repository.
func New(s store, types typeLookup, prefix string) *Repo {
	return &Repo{store: s, types: types, prefix: prefix}
}

func (r *Repo) key(model, id string) string {
	return r.prefix + "rec:" + model + ":" + id
}

func (r *Repo) item(rec entity.Record) (db.HashSetItem, error) {
	t, ok := r.types.Lookup(rec.Model())
	if !ok {
		return db.HashSetItem{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, rec.Model())
	}
	parentID, _ := rec.ParentID(t)
	fields, err := recordToHash(rec, parentID)
	if err != nil {
		return db.HashSetItem{}, fmt.Errorf("record %s/%s: %w", rec.Model(), rec.ID(), err)
	}
	return db.HashSetItem{Key: r.key(t.Name(), rec.ID()), Fields: fields}, nil
}

// Put stores one record, replacing any previous version.
func (r *Repo) Put(ctx context.Context, rec entity.Record) error {
	it, err := r.item(rec)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, it.Key, it.Fields); err != nil {
		return fmt.Errorf("hset record %s: %w", it.Key, err)
	}
	return nil
}

// PutMany stores records in one pipelined round-trip.
func (r *Repo) PutMany(ctx context.Context, recs []entity.Record) error {
	items := make([]db.HashSetItem, 0, len(recs))
	for _, rec := range recs {
		it, err := r.item(rec)
		if err != nil {
			return err
		}
		items = append(items, it)
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset records: %w", err)
	}
	return nil
}

// Get returns one record or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, model, id string) (entity.Record, error) {
	m, err := r.store.HGetAll(ctx, r.key(model, id))
	if err != nil {
		return entity.Record{}, fmt.Errorf("hgetall record %s/%s: %w", model, id, err)
	}
	if len(m) == 0 {
		return entity.Record{}, domain.ErrNotFound
	}
	return recordFromHash(model, m)
}

// List returns every record of a model ordered by creation time.
func (r *Repo) List(ctx context.Context, model string) ([]entity.Record, error) {
	keys, err := r.store.Scan(ctx, r.key(model, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", model, err)
	}
	return r.load(ctx, model, keys)
}

// Execute returns the records of t inside scope that satisfy pred, ordered
// by creation time then id.
func (r *Repo) Execute(
	ctx context.Context, t entity.Type, scope permission.Scope, pred filter.Predicate,
) ([]entity.Record, error) {
	if scope.IsEmpty() {
		return nil, nil
	}

	var (
		recs []entity.Record
		err  error
	)
	if scope.IsAll() {
		recs, err = r.List(ctx, t.Name())
	} else {
		ids := scope.List()
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = r.key(t.Name(), id)
		}
		recs, err = r.load(ctx, t.Name(), keys)
	}
	if err != nil {
		return nil, err
	}

	out := recs[:0]
	for _, rec := range recs {
		if pred.Match(rec.Attributes()) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Refs lists id/parent pairs of every record of a model.
func (r *Repo) Refs(ctx context.Context, model string) ([]permission.Ref, error) {
	keys, err := r.store.Scan(ctx, r.key(model, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", model, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi %s: %w", model, err)
	}

	refs := make([]permission.Ref, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		id := m[fieldID]
		if id == "" {
			id = strings.TrimPrefix(keys[i], r.key(model, ""))
		}
		refs = append(refs, permission.Ref{ID: id, ParentID: m[fieldParent]})
	}
	return refs, nil
}

// load fetches and decodes keys, skipping hashes deleted since the scan.
func (r *Repo) load(ctx context.Context, model string, keys []string) ([]entity.Record, error) {
	if len(keys) == 0 {
		return []entity.Record{}, nil
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi %s: %w", model, err)
	}

	recs := make([]entity.Record, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		rec, err := recordFromHash(model, m)
		if err != nil {
			return nil, fmt.Errorf("parse record %s: %w", keys[i], err)
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool { return entity.Less(recs[i], recs[j]) })
	return recs, nil
}

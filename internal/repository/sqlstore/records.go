package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/dareg/internal/db"
	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

const upsertRecord = `INSERT INTO search_records (model, id, parent_id, created_at, attributes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (model, id) DO UPDATE SET
    parent_id = excluded.parent_id,
    created_at = excluded.created_at,
    attributes = excluded.attributes`

type recordRow struct {
	model, id  string
	parentID   sql.NullString
	created    string
	attributes string
}

func (s *Store) row(rec entity.Record) (recordRow, error) {
	t, ok := s.types.Lookup(rec.Model())
	if !ok {
		return recordRow{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, rec.Model())
	}
	attrs, err := rec.Attributes().MarshalJSON()
	if err != nil {
		return recordRow{}, fmt.Errorf("record %s/%s: marshal attributes: %w", rec.Model(), rec.ID(), err)
	}
	parentID, hasParent := rec.ParentID(t)
	return recordRow{
		model:      t.Name(),
		id:         rec.ID(),
		parentID:   sql.NullString{String: parentID, Valid: hasParent},
		created:    rec.Created().UTC().Format(entity.CreatedLayout),
		attributes: string(attrs),
	}, nil
}

// Put stores one record, replacing any previous version.
func (s *Store) Put(ctx context.Context, rec entity.Record) error {
	return s.PutMany(ctx, []entity.Record{rec})
}

// PutMany stores records in one transaction.
func (s *Store) PutMany(ctx context.Context, recs []entity.Record) error {
	rows := make([]recordRow, 0, len(recs))
	for _, rec := range recs {
		r, err := s.row(rec)
		if err != nil {
			return err
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.query(upsertRecord))
		if err != nil {
			return &db.Error{Op: db.OpInsert, Err: err}
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.model, r.id, r.parentID, r.created, r.attributes); err != nil {
				return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("record %s/%s: %w", r.model, r.id, err)}
			}
		}
		return nil
	})
}

// Get returns one record or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, model, id string) (entity.Record, error) {
	q := s.query(`SELECT id, created_at, attributes FROM search_records WHERE model = $1 AND id = $2`)
	var (
		rid, created string
		attrs        []byte
	)
	err := s.db.QueryRowContext(ctx, q, model, id).Scan(&rid, &created, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return entity.Record{}, &db.Error{Op: db.OpQuery, Err: err}
	}
	return decode(model, rid, created, attrs)
}

// Execute returns the records of t inside scope that satisfy pred, ordered
// by creation time then id. The predicate is pushed down as a loose SQL
// filter and re-applied to every loaded record.
func (s *Store) Execute(
	ctx context.Context, t entity.Type, scope permission.Scope, pred filter.Predicate,
) ([]entity.Record, error) {
	if scope.IsEmpty() {
		return nil, nil
	}

	q, args := s.selectQuery(t, scope, pred)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []entity.Record
	for rows.Next() {
		var (
			id, created string
			attrs       []byte
		)
		if err := rows.Scan(&id, &created, &attrs); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		rec, err := decode(t.Name(), id, created, attrs)
		if err != nil {
			return nil, err
		}
		if pred.Match(rec.Attributes()) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

func (s *Store) selectQuery(t entity.Type, scope permission.Scope, pred filter.Predicate) (string, []any) {
	b := &builder{d: s.dialect}
	where := []string{"model = " + b.arg(t.Name())}
	if !scope.IsAll() {
		where = append(where, s.dialect.inIDs(b, scope.List()))
	}
	if frag, ok := b.pushdown(pred.Root()); ok {
		where = append(where, frag)
	}
	q := "SELECT id, created_at, attributes FROM search_records WHERE " +
		strings.Join(where, " AND ") + " ORDER BY created_at, id"
	return q, b.args
}

// Refs lists id/parent pairs of every record of a model.
func (s *Store) Refs(ctx context.Context, model string) ([]permission.Ref, error) {
	q := s.query(`SELECT id, COALESCE(parent_id, '') FROM search_records WHERE model = $1 ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, q, model)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var refs []permission.Ref
	for rows.Next() {
		var r permission.Ref
		if err := rows.Scan(&r.ID, &r.ParentID); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return refs, nil
}

func decode(model, id, created string, raw []byte) (entity.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return entity.Record{}, fmt.Errorf("record %s/%s: invalid created_at: %w", model, id, err)
	}
	attrs := value.NewMap()
	if len(raw) > 0 {
		if err := attrs.UnmarshalJSON(raw); err != nil {
			return entity.Record{}, fmt.Errorf("record %s/%s: %w", model, id, err)
		}
	}
	return entity.NewRecord(model, id, ts, attrs)
}

package schema

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// recordGetter loads one record. Missing records return domain.ErrNotFound.
type recordGetter interface {
	Get(ctx context.Context, model, id string) (entity.Record, error)
}

// Repo reads schemas stored as Schema records.
type Repo struct {
	records recordGetter
}

// New creates a schema repository.
func New(records recordGetter) *Repo {
	return &Repo{records: records}
}

// Get loads the schema with the given id.
func (r *Repo) Get(ctx context.Context, id string) (schema.Schema, error) {
	rec, err := r.records.Get(ctx, entity.Schema, id)
	if err != nil {
		return schema.Schema{}, err
	}
	return FromRecord(rec)
}

// FromRecord builds a schema from a Schema record's name, version,
// description and schema attributes.
func FromRecord(rec entity.Record) (schema.Schema, error) {
	name := stringAttr(rec, "name")
	description := stringAttr(rec, "description")

	version := 1
	if v, ok := rec.Get("version"); ok {
		if i, isInt := v.AsInt(); isInt {
			version = int(i)
		}
	}

	doc, ok := rec.Get("schema")
	if !ok {
		doc = value.Obj(value.NewMap())
	}

	s, err := schema.New(rec.ID(), name, version, description, doc)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("schema record %s: %w", rec.ID(), err)
	}
	return s, nil
}

func stringAttr(rec entity.Record, attr string) string {
	v, ok := rec.Get(attr)
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

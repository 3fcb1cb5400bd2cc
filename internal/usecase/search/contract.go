package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
)

// Registry enumerates searchable entity types.
type Registry interface {
	Types() []entity.Type
	Lookup(name string) (entity.Type, bool)
}

// PermissionOracle resolves the records an actor may see.
type PermissionOracle interface {
	ViewableScope(ctx context.Context, a actor.Actor, t entity.Type) (permission.Scope, error)
}

// SchemaStore loads metadata schemas. Missing ids return domain.ErrNotFound.
type SchemaStore interface {
	Get(ctx context.Context, id string) (schema.Schema, error)
}

// Executor returns the records of t inside scope that satisfy pred, in the
// store's default order (created, then id).
type Executor interface {
	Execute(ctx context.Context, t entity.Type, scope permission.Scope, pred filter.Predicate) ([]entity.Record, error)
}

// Recorder receives per-search measurements.
type Recorder interface {
	ObserveModel(model string, took time.Duration, results int)
	Skipped(model, reason string)
	FilterRejected(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveModel(string, time.Duration, int) {}
func (nopRecorder) Skipped(string, string)                  {}
func (nopRecorder) FilterRejected(string)                   {}

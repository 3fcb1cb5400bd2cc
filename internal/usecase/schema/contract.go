package schema

import (
	"context"

	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
)

// Store loads schemas by id. Missing ids return domain.ErrNotFound.
type Store interface {
	Get(ctx context.Context, id string) (schema.Schema, error)
}

// Viewer checks object-level view permission.
type Viewer interface {
	CanView(ctx context.Context, a actor.Actor, model, id string) (bool, error)
}

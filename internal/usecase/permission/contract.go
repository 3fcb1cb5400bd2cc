package permission

import (
	"context"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
)

// Registry resolves entity types by name.
type Registry interface {
	Lookup(name string) (entity.Type, bool)
}

// GrantReader lists the grants held by an actor.
type GrantReader interface {
	Grants(ctx context.Context, actorID string) ([]permission.Grant, error)
}

// RefLister lists id/parent pairs of every record of a model.
type RefLister interface {
	Refs(ctx context.Context, model string) ([]permission.Ref, error)
}

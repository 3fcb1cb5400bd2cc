package permission

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
)

// maxParentDepth bounds the parent chain walk.
const maxParentDepth = 16

// Oracle answers visibility questions with nested roles: a role granted on a
// record also applies to every descendant through the parent chain.
type Oracle struct {
	registry Registry
	grants   GrantReader
	refs     RefLister
	required permission.Role
}

// NewOracle creates an oracle requiring the viewer role for visibility.
func NewOracle(registry Registry, grants GrantReader, refs RefLister) *Oracle {
	return &Oracle{registry: registry, grants: grants, refs: refs, required: permission.Viewer}
}

// ViewableScope returns the records of t the actor may see.
func (o *Oracle) ViewableScope(ctx context.Context, a actor.Actor, t entity.Type) (permission.Scope, error) {
	if a.IsSuperuser() || t.IsPublic() {
		return permission.All(), nil
	}
	if a.IsAnonymous() {
		return permission.IDs(), nil
	}

	grants, err := o.grants.Grants(ctx, a.ID())
	if err != nil {
		return permission.Scope{}, fmt.Errorf("list grants: %w", err)
	}
	direct := make(map[string]map[string]struct{})
	for _, g := range grants {
		if g.Role < o.required {
			continue
		}
		if direct[g.Model] == nil {
			direct[g.Model] = make(map[string]struct{})
		}
		direct[g.Model][g.ObjectID] = struct{}{}
	}

	ids, err := o.viewable(ctx, t, direct, 0)
	if err != nil {
		return permission.Scope{}, err
	}
	return permission.IDs(ids...), nil
}

// CanView is the point check for one record.
func (o *Oracle) CanView(ctx context.Context, a actor.Actor, model, id string) (bool, error) {
	t, ok := o.registry.Lookup(model)
	if !ok {
		return false, nil
	}
	scope, err := o.ViewableScope(ctx, a, t)
	if err != nil {
		return false, err
	}
	return scope.Contains(id), nil
}

// viewable walks up the parent chain: a record is visible with a direct
// grant or when its parent is visible.
func (o *Oracle) viewable(
	ctx context.Context, t entity.Type, direct map[string]map[string]struct{}, depth int,
) ([]string, error) {
	if depth > maxParentDepth {
		return nil, fmt.Errorf("parent chain of %s too deep", t.Name())
	}

	var ids []string
	for id := range direct[t.Name()] {
		ids = append(ids, id)
	}

	parentName, _, ok := t.Parent()
	if !ok {
		return ids, nil
	}
	parent, ok := o.registry.Lookup(parentName)
	if !ok {
		return nil, fmt.Errorf("%s: unknown parent type %s", t.Name(), parentName)
	}
	parentIDs, err := o.viewable(ctx, parent, direct, depth+1)
	if err != nil {
		return nil, err
	}
	if len(parentIDs) == 0 {
		return ids, nil
	}
	visibleParent := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		visibleParent[id] = struct{}{}
	}

	refs, err := o.refs.Refs(ctx, t.Name())
	if err != nil {
		return nil, fmt.Errorf("list %s refs: %w", t.Name(), err)
	}
	for _, r := range refs {
		if _, ok := visibleParent[r.ParentID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

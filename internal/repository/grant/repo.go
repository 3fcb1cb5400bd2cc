package grant

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/dareg/internal/domain/permission"
)

// store is the consumer interface for grants (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// Repo stores each actor's grants as one hash <prefix>grants:<actor>
// mapping "<Model>:<id>" to a role name.
type Repo struct {
	store  store
	prefix string
}

// New creates a grant repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) key(actorID string) string {
	return r.prefix + "grants:" + actorID
}

// Grants lists the grants held by an actor, ordered by model then id.
func (r *Repo) Grants(ctx context.Context, actorID string) ([]permission.Grant, error) {
	m, err := r.store.HGetAll(ctx, r.key(actorID))
	if err != nil {
		return nil, fmt.Errorf("hgetall grants %s: %w", actorID, err)
	}

	out := make([]permission.Grant, 0, len(m))
	for field, roleName := range m {
		model, id, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("grants %s: malformed field %q", actorID, field)
		}
		role, err := permission.ParseRole(roleName)
		if err != nil {
			return nil, fmt.Errorf("grants %s: %w", actorID, err)
		}
		out = append(out, permission.Grant{Actor: actorID, Model: model, ObjectID: id, Role: role})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].ObjectID < out[j].ObjectID
	})
	return out, nil
}

// Replace overwrites all grants of an actor.
func (r *Repo) Replace(ctx context.Context, actorID string, grants []permission.Grant) error {
	key := r.key(actorID)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del grants %s: %w", actorID, err)
	}
	if len(grants) == 0 {
		return nil
	}

	fields := make(map[string]string, len(grants))
	for _, g := range grants {
		if g.Role == permission.None {
			continue
		}
		fields[g.Model+":"+g.ObjectID] = g.Role.String()
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset grants %s: %w", actorID, err)
	}
	return nil
}

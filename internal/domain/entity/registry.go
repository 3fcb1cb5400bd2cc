package entity

import (
	"fmt"
	"strings"
)

// Registry is the static, ordered set of searchable entity types.
// It is built once at startup and never mutated.
type Registry struct {
	types  []Type
	byName map[string]int
}

// NewRegistry validates names and parent links and preserves declaration order.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: types, byName: make(map[string]int, len(types))}
	for i, t := range types {
		key := strings.ToLower(t.Name())
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate entity type %q", t.Name())
		}
		r.byName[key] = i
	}
	for _, t := range types {
		if parent, _, ok := t.Parent(); ok {
			if _, found := r.Lookup(parent); !found {
				return nil, fmt.Errorf("%s: unknown parent type %q", t.Name(), parent)
			}
		}
	}
	return r, nil
}

// Types returns every registered type in iteration order.
func (r *Registry) Types() []Type { return r.types }

// Lookup resolves a type name case-insensitively.
func (r *Registry) Lookup(name string) (Type, bool) {
	i, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Type{}, false
	}
	return r.types[i], true
}

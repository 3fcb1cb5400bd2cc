// Package permission models nested object roles and the record scope an
// actor may see.
package permission

import (
	"fmt"
	"sort"
)

// Role is an object-level role. Higher roles imply lower ones.
type Role uint8

// Roles in ascending order.
const (
	None Role = iota
	Viewer
	Editor
	Owner
)

func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Editor:
		return "editor"
	case Owner:
		return "owner"
	default:
		return "none"
	}
}

// ParseRole parses "viewer", "editor" or "owner".
func ParseRole(s string) (Role, error) {
	switch s {
	case "viewer":
		return Viewer, nil
	case "editor":
		return Editor, nil
	case "owner":
		return Owner, nil
	default:
		return None, fmt.Errorf("unknown role %q", s)
	}
}

// Grant gives an actor a role on one record.
type Grant struct {
	Actor    string
	Model    string
	ObjectID string
	Role     Role
}

// Ref links a record to its parent record. ParentID is empty for roots.
type Ref struct {
	ID       string
	ParentID string
}

// Scope is the set of record ids of one type an actor may see.
type Scope struct {
	all bool
	ids map[string]struct{}
}

// All is the scope covering every record of a type.
func All() Scope { return Scope{all: true} }

// IDs is the scope covering exactly the given ids.
func IDs(ids ...string) Scope {
	s := Scope{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// IsAll reports whether the scope is unrestricted.
func (s Scope) IsAll() bool { return s.all }

// IsEmpty reports whether the scope admits nothing.
func (s Scope) IsEmpty() bool { return !s.all && len(s.ids) == 0 }

// Contains reports whether id is inside the scope.
func (s Scope) Contains(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// List returns the explicit ids in sorted order; nil for All.
func (s Scope) List() []string {
	if s.all {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

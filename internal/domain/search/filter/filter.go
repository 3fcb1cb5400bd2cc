// Package filter compiles MongoDB-style filter documents into a predicate
// tree validated against a field catalog, and evaluates that tree against
// in-memory records.
package filter

import (
	"strings"

	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// MaxDepth bounds combinator nesting in a filter document.
const MaxDepth = 32

// Op is a field operator.
type Op string

// Supported field operators.
const (
	OpEq       Op = "$eq"
	OpNe       Op = "$ne"
	OpGt       Op = "$gt"
	OpGte      Op = "$gte"
	OpLt       Op = "$lt"
	OpLte      Op = "$lte"
	OpContains Op = "$contains"
	OpRegex    Op = "$regex"
	OpIn       Op = "$in"
	OpNin      Op = "$nin"
	OpNull     Op = "$null"
)

// Logical combinators, checked in this order.
const (
	keyAnd = "$and"
	keyOr  = "$or"
	keyNot = "$not"
)

// Node is one element of a compiled predicate tree:
// And, Or, Not or Condition.
type Node interface {
	node()
}

// And matches when every child matches. An empty And matches everything.
type And struct{ Children []Node }

// Or matches when any child matches. An empty Or matches everything.
type Or struct{ Children []Node }

// Not negates its child.
type Not struct{ Child Node }

// Condition tests one field with one operator.
type Condition struct {
	// Field is the dotted path as written in the filter.
	Field string
	// Path is Field split into attribute name and nested keys.
	Path  []string
	Op    Op
	Value value.Value
}

func (And) node()       {}
func (Or) node()        {}
func (Not) node()       {}
func (Condition) node() {}

// Predicate is a compiled, validated filter.
type Predicate struct {
	root Node
}

// MatchAll is the predicate used when no filters are supplied.
func MatchAll() Predicate { return Predicate{root: And{}} }

// Root returns the predicate tree.
func (p Predicate) Root() Node {
	if p.root == nil {
		return And{}
	}
	return p.root
}

// IsMatchAll reports whether the predicate imposes no constraint.
func (p Predicate) IsMatchAll() bool {
	a, ok := p.Root().(And)
	return ok && len(a.Children) == 0
}

// Fields lists every field referenced in the tree, first occurrence first.
func (p Predicate) Fields() []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case And:
			for _, c := range t.Children {
				walk(c)
			}
		case Or:
			for _, c := range t.Children {
				walk(c)
			}
		case Not:
			walk(t.Child)
		case Condition:
			if _, ok := seen[t.Field]; !ok {
				seen[t.Field] = struct{}{}
				out = append(out, t.Field)
			}
		}
	}
	walk(p.Root())
	return out
}

func splitPath(field string) []string {
	return strings.Split(field, ".")
}

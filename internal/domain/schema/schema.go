// Package schema holds JSON-Schema-like metadata documents and flattens
// their property trees into dotted field paths.
package schema

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// MaxDepth bounds how deep Flatten descends into nested object properties.
const MaxDepth = 32

// Primitive types a property may declare.
var primitives = map[string]struct{}{
	"string": {}, "integer": {}, "number": {}, "boolean": {}, "array": {}, "object": {},
}

// Schema is a named, versioned metadata document. Immutable.
type Schema struct {
	id          string
	name        string
	version     int
	description string
	document    value.Value
}

// New creates a schema. version defaults to 1.
func New(id, name string, version int, description string, document value.Value) (Schema, error) {
	if id == "" {
		return Schema{}, fmt.Errorf("schema id is required")
	}
	if name == "" {
		return Schema{}, fmt.Errorf("schema name is required")
	}
	if version <= 0 {
		version = 1
	}
	return Schema{id: id, name: name, version: version, description: description, document: document}, nil
}

// ID returns the schema identifier.
func (s Schema) ID() string { return s.id }

// Name returns the schema name.
func (s Schema) Name() string { return s.name }

// Version returns the schema version.
func (s Schema) Version() int { return s.version }

// Description returns the free-form description.
func (s Schema) Description() string { return s.description }

// Document returns the raw schema document.
func (s Schema) Document() value.Value { return s.document }

// Label renders "<name> (v<version>)".
func (s Schema) Label() string { return fmt.Sprintf("%s (v%d)", s.name, s.version) }

// Property is one flattened schema property.
type Property struct {
	Path []string
	// Type is the declared primitive type; empty for object nodes with
	// children and for properties without a recognised type.
	Type string
	// HasChildren marks object nodes whose descendants are listed too.
	HasChildren bool
}

// Dotted joins the property path with ".".
func (p Property) Dotted() string { return strings.Join(p.Path, ".") }

// Properties flattens the document's root "properties" tree in pre-order.
// A document that is not an object yields domain.ErrInvalidSchema.
func (s Schema) Properties() ([]Property, error) {
	return Flatten(s.document)
}

// Fields returns the flattened dotted property paths.
func (s Schema) Fields() ([]string, error) {
	props, err := s.Properties()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Dotted()
	}
	return out, nil
}

// Flatten walks document.properties. Nested objects with their own
// "properties" are listed and descended into, up to MaxDepth levels.
func Flatten(document value.Value) ([]Property, error) {
	root, ok := document.AsMap()
	if !ok {
		return nil, fmt.Errorf("%w: document must be an object, got %s", domain.ErrInvalidSchema, document.Kind())
	}
	propsVal, ok := root.Get("properties")
	if !ok || propsVal.IsNull() {
		return []Property{}, nil
	}
	props, ok := propsVal.AsMap()
	if !ok {
		return nil, fmt.Errorf("%w: properties must be an object, got %s", domain.ErrInvalidSchema, propsVal.Kind())
	}

	out := []Property{}
	flatten(props, nil, 1, &out)
	return out, nil
}

func flatten(props *value.Map, prefix []string, depth int, out *[]Property) {
	for _, key := range props.Keys() {
		raw, _ := props.Get(key)
		path := make([]string, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = key

		node, _ := raw.AsMap()
		declared := declaredType(node)
		children, hasChildren := childProperties(node, declared)

		p := Property{Path: path, HasChildren: hasChildren}
		if !hasChildren {
			p.Type = declared
		}
		*out = append(*out, p)

		if hasChildren && depth < MaxDepth {
			flatten(children, path, depth+1, out)
		}
	}
}

func declaredType(node *value.Map) string {
	t, ok := node.Get("type")
	if !ok {
		return ""
	}
	s, ok := t.AsString()
	if !ok {
		return ""
	}
	if _, known := primitives[s]; !known {
		return ""
	}
	return s
}

func childProperties(node *value.Map, declared string) (*value.Map, bool) {
	if declared != "object" {
		return nil, false
	}
	v, ok := node.Get("properties")
	if !ok {
		return nil, false
	}
	m, ok := v.AsMap()
	return m, ok
}

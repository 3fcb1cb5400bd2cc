// Package catalog computes the field paths a filter may reference for one
// entity type, optionally extended by a metadata schema.
package catalog

import (
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
)

// Field is one queryable path.
type Field struct {
	Path string
	// Type is the declared schema type; empty means unchecked.
	Type string
}

// Catalog is the immutable set of allowed fields for one type.
type Catalog struct {
	order  []string
	fields map[string]Field
}

// Allowed returns every declared attribute of t and, when s is non-nil and
// t has a metadata attribute, every schema property path prefixed with it.
func Allowed(t entity.Type, s *schema.Schema) (Catalog, error) {
	c := Catalog{fields: make(map[string]Field)}
	for _, a := range t.Attributes() {
		c.add(Field{Path: a.Name})
	}

	meta := t.MetadataAttr()
	if s == nil || meta == "" {
		return c, nil
	}
	props, err := s.Properties()
	if err != nil {
		return Catalog{}, err //nolint:wrapcheck // already carries ErrInvalidSchema context
	}
	for _, p := range props {
		c.add(Field{Path: meta + "." + p.Dotted(), Type: p.Type})
	}
	return c, nil
}

func (c *Catalog) add(f Field) {
	if _, ok := c.fields[f.Path]; !ok {
		c.order = append(c.order, f.Path)
	}
	c.fields[f.Path] = f
}

// Lookup returns the field for an exact dotted path.
func (c Catalog) Lookup(path string) (Field, bool) {
	f, ok := c.fields[path]
	return f, ok
}

// Types returns the declared types of type-checked paths.
func (c Catalog) Types() map[string]string {
	out := make(map[string]string)
	for _, p := range c.order {
		if t := c.fields[p].Type; t != "" {
			out[p] = t
		}
	}
	return out
}

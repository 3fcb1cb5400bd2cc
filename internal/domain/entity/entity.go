// Package entity describes the closed set of registry record kinds: their
// declared attributes, metadata attribute, free-text allow-list and parent
// link used for nested permissions.
package entity

import (
	"fmt"
	"strings"
)

// AttrKind is the storage shape of a declared attribute.
type AttrKind uint8

// Attribute kinds.
const (
	KindString AttrKind = iota
	KindText
	KindInteger
	KindBoolean
	KindDateTime
	KindReference
	KindJSON
)

func (k AttrKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindDateTime:
		return "datetime"
	case KindReference:
		return "reference"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Attribute is one declared attribute of an entity type.
type Attribute struct {
	Name string
	Kind AttrKind
	// Target names the referenced type for KindReference.
	Target string
}

// IsText reports whether the attribute holds character data.
func (a Attribute) IsText() bool {
	return a.Kind == KindString || a.Kind == KindText
}

// Type is an immutable entity type descriptor.
type Type struct {
	name         string
	attributes   []Attribute
	metadataAttr string
	textFields   []string
	parent       string
	parentAttr   string
	public       bool
}

// Option configures a Type.
type Option func(*Type)

// WithMetadata names the JSON attribute that schema-derived field paths extend.
func WithMetadata(attr string) Option {
	return func(t *Type) { t.metadataAttr = attr }
}

// WithTextFields sets the free-text ranking allow-list.
func WithTextFields(fields ...string) Option {
	return func(t *Type) { t.textFields = fields }
}

// WithParent links the type to its parent type through a reference attribute.
func WithParent(parentType, attr string) Option {
	return func(t *Type) {
		t.parent = parentType
		t.parentAttr = attr
	}
}

// Public marks a type visible to every authenticated actor.
func Public() Option {
	return func(t *Type) { t.public = true }
}

// NewType validates and creates an entity type.
func NewType(name string, attrs []Attribute, opts ...Option) (Type, error) {
	if name == "" {
		return Type{}, fmt.Errorf("entity type name is required")
	}
	t := Type{name: name, attributes: attrs}
	for _, opt := range opts {
		opt(&t)
	}

	seen := make(map[string]Attribute, len(attrs))
	for _, a := range attrs {
		if a.Name == "" || strings.Contains(a.Name, ".") {
			return Type{}, fmt.Errorf("%s: invalid attribute name %q", name, a.Name)
		}
		if _, dup := seen[a.Name]; dup {
			return Type{}, fmt.Errorf("%s: duplicate attribute %q", name, a.Name)
		}
		seen[a.Name] = a
	}
	for _, f := range t.textFields {
		a, ok := seen[f]
		if !ok || !a.IsText() {
			return Type{}, fmt.Errorf("%s: text field %q is not a declared text attribute", name, f)
		}
	}
	if t.metadataAttr != "" {
		if a, ok := seen[t.metadataAttr]; !ok || a.Kind != KindJSON {
			return Type{}, fmt.Errorf("%s: metadata attribute %q is not a declared json attribute", name, t.metadataAttr)
		}
	}
	if t.parent != "" {
		if a, ok := seen[t.parentAttr]; !ok || a.Kind != KindReference {
			return Type{}, fmt.Errorf("%s: parent attribute %q is not a declared reference", name, t.parentAttr)
		}
	}
	return t, nil
}

// MustType is NewType that panics; intended for static declarations.
func MustType(name string, attrs []Attribute, opts ...Option) Type {
	t, err := NewType(name, attrs, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type tag, e.g. "Dataset".
func (t Type) Name() string { return t.name }

// Attributes returns declared attributes in declaration order.
func (t Type) Attributes() []Attribute { return t.attributes }

// Attribute looks up a declared attribute.
func (t Type) Attribute(name string) (Attribute, bool) {
	for _, a := range t.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// MetadataAttr returns the JSON metadata attribute name, or "".
func (t Type) MetadataAttr() string { return t.metadataAttr }

// TextFields returns the free-text ranking allow-list.
func (t Type) TextFields() []string { return t.textFields }

// Parent returns the parent type and the reference attribute pointing at it.
func (t Type) Parent() (parentType, attr string, ok bool) {
	return t.parent, t.parentAttr, t.parent != ""
}

// IsPublic reports whether any authenticated actor may view every record.
func (t Type) IsPublic() bool { return t.public }

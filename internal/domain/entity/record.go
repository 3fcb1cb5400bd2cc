package entity

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Reserved attribute names present on every record.
const (
	AttrID       = "id"
	AttrCreated  = "created"
	AttrModified = "modified"
	AttrName     = "name"
)

// CreatedLayout formats creation timestamps. It is fixed-width so created
// values compare chronologically as strings.
const CreatedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one stored entity instance.
type Record struct {
	model      string
	id         string
	created    time.Time
	attributes *value.Map
}

// NewRecord creates a record. id and created are mirrored into attributes so
// filters can address them like any other attribute.
func NewRecord(model, id string, created time.Time, attrs *value.Map) (Record, error) {
	if model == "" {
		return Record{}, fmt.Errorf("record model is required")
	}
	if id == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	a := attrs.Clone()
	a.Set(AttrID, value.Str(id))
	if !created.IsZero() {
		a.Set(AttrCreated, value.Str(created.UTC().Format(CreatedLayout)))
	}
	return Record{model: model, id: id, created: created.UTC(), attributes: a}, nil
}

// Model returns the entity type tag.
func (r Record) Model() string { return r.model }

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Created returns the creation timestamp.
func (r Record) Created() time.Time { return r.created }

// Attributes returns all attribute values including id and created.
func (r Record) Attributes() *value.Map { return r.attributes }

// Get returns one attribute value.
func (r Record) Get(attr string) (value.Value, bool) { return r.attributes.Get(attr) }

// Text returns the record's display string: the name attribute when set,
// otherwise "<Model> object (<id>)".
func (r Record) Text() string {
	if v, ok := r.Get(AttrName); ok {
		if s, isStr := v.AsString(); isStr && s != "" {
			return s
		}
	}
	return fmt.Sprintf("%s object (%s)", r.model, r.id)
}

// ParentID returns the id referenced by the type's parent attribute.
func (r Record) ParentID(t Type) (string, bool) {
	_, attr, ok := t.Parent()
	if !ok {
		return "", false
	}
	v, ok := r.Get(attr)
	if !ok {
		return "", false
	}
	switch v.Kind() {
	case value.String:
		s, _ := v.AsString()
		return s, s != ""
	case value.Integer:
		i, _ := v.AsInt()
		return fmt.Sprint(i), true
	default:
		return "", false
	}
}

// Less orders records by creation time, then id.
func Less(a, b Record) bool {
	if !a.created.Equal(b.created) {
		return a.created.Before(b.created)
	}
	return a.id < b.id
}

package schema

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

func doc(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestFlatten_PreOrderWithTypes(t *testing.T) {
	props, err := Flatten(doc(t, `{
		"type": "object",
		"properties": {
			"sample": {
				"type": "object",
				"properties": {
					"ph": {"type": "number"},
					"origin": {"type": "object", "properties": {"lab": {"type": "string"}}}
				}
			},
			"age": {"type": "integer"},
			"tags": {"type": "array"},
			"extra": {"type": "object"},
			"odd": {"type": ["string", "null"]}
		}
	}`))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	want := []struct {
		path     string
		typ      string
		children bool
	}{
		{"sample", "", true},
		{"sample.ph", "number", false},
		{"sample.origin", "", true},
		{"sample.origin.lab", "string", false},
		{"age", "integer", false},
		{"tags", "array", false},
		{"extra", "object", false},
		{"odd", "", false},
	}
	if len(props) != len(want) {
		t.Fatalf("got %d properties, want %d: %+v", len(props), len(want), props)
	}
	for i, w := range want {
		p := props[i]
		if p.Dotted() != w.path || p.Type != w.typ || p.HasChildren != w.children {
			t.Errorf("property %d = {%s %q %v}, want {%s %q %v}",
				i, p.Dotted(), p.Type, p.HasChildren, w.path, w.typ, w.children)
		}
	}
}

func TestFlatten_InvalidDocuments(t *testing.T) {
	for _, in := range []string{`[]`, `"x"`, `{"properties": [1]}`} {
		_, err := Flatten(doc(t, in))
		if !errors.Is(err, domain.ErrInvalidSchema) {
			t.Errorf("Flatten(%s): expected ErrInvalidSchema, got %v", in, err)
		}
	}

	props, err := Flatten(doc(t, `{"title": "no properties"}`))
	if err != nil || len(props) != 0 {
		t.Errorf("document without properties: %v, %v", props, err)
	}
}

func TestFlatten_DepthLimit(t *testing.T) {
	var b strings.Builder
	depth := MaxDepth + 10
	b.WriteString(`{"properties":`)
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&b, `{"n%d":{"type":"object","properties":`, i)
	}
	b.WriteString(`{"leaf":{"type":"string"}}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`}}`)
	}
	b.WriteString(`}`)

	props, err := Flatten(doc(t, b.String()))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(props) != MaxDepth {
		t.Fatalf("expected %d properties, got %d", MaxDepth, len(props))
	}
	if got := len(props[len(props)-1].Path); got != MaxDepth {
		t.Errorf("deepest path has %d segments, want %d", got, MaxDepth)
	}
}

func TestSchema_LabelAndFields(t *testing.T) {
	s, err := New("1", "Microscopy", 0, "", doc(t, `{"properties":{"a":{"type":"string"},"b":{"type":"object","properties":{"c":{"type":"integer"}}}}}`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Label() != "Microscopy (v1)" {
		t.Errorf("Label() = %q", s.Label())
	}
	fields, err := s.Fields()
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if strings.Join(fields, ",") != "a,b,b.c" {
		t.Errorf("Fields() = %v", fields)
	}

	if _, err := New("", "x", 1, "", value.NullValue()); err == nil {
		t.Error("expected error for empty id")
	}
}

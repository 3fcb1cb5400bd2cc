package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain/value"
)

func TestNewType_Validation(t *testing.T) {
	attrs := []Attribute{
		{Name: "name", Kind: KindString},
		{Name: "count", Kind: KindInteger},
		{Name: "metadata", Kind: KindJSON},
		{Name: "owner", Kind: KindReference, Target: "Facility"},
	}

	tests := []struct {
		name    string
		attrs   []Attribute
		opts    []Option
		wantErr string
	}{
		{"ok", attrs, []Option{WithTextFields("name"), WithMetadata("metadata")}, ""},
		{"text field not text", attrs, []Option{WithTextFields("count")}, `text field "count"`},
		{"text field undeclared", attrs, []Option{WithTextFields("title")}, `text field "title"`},
		{"metadata not json", attrs, []Option{WithMetadata("name")}, `metadata attribute "name"`},
		{"parent not reference", attrs, []Option{WithParent("Facility", "name")}, `parent attribute "name"`},
		{"dotted attribute", []Attribute{{Name: "a.b"}}, nil, `invalid attribute name "a.b"`},
		{"duplicate attribute", []Attribute{{Name: "a"}, {Name: "a"}}, nil, `duplicate attribute "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewType("Thing", tt.attrs, tt.opts...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuiltin_OrderAndLookup(t *testing.T) {
	r := Builtin()

	want := []string{Facility, Instrument, Project, Dataset, Experiment, Schema, Template}
	got := r.Types()
	if len(got) != len(want) {
		t.Fatalf("expected %d types, got %d", len(want), len(got))
	}
	for i, typ := range got {
		if typ.Name() != want[i] {
			t.Errorf("type %d = %s, want %s", i, typ.Name(), want[i])
		}
	}

	ds, ok := r.Lookup("dataset")
	if !ok {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if ds.MetadataAttr() != "metadata" {
		t.Errorf("Dataset metadata attr = %q", ds.MetadataAttr())
	}
	if parent, attr, ok := ds.Parent(); !ok || parent != Project || attr != "project" {
		t.Errorf("Dataset parent = %s via %s (%v)", parent, attr, ok)
	}

	tpl, _ := r.Lookup(Template)
	if len(tpl.TextFields()) != 0 {
		t.Errorf("Template must have no text fields, got %v", tpl.TextFields())
	}
	if !tpl.IsPublic() {
		t.Error("Template must be public")
	}
	if sch, _ := r.Lookup(Schema); sch.IsPublic() {
		t.Error("Schema visibility is granted per record")
	}

	if _, ok := r.Lookup("Language"); ok {
		t.Error("unexpected type Language")
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	a := MustType("A", nil)
	if _, err := NewRegistry(a, MustType("a", nil)); err == nil {
		t.Error("expected duplicate type error")
	}

	child := MustType("Child", []Attribute{{Name: "up", Kind: KindReference}}, WithParent("Missing", "up"))
	if _, err := NewRegistry(child); err == nil {
		t.Error("expected unknown parent error")
	}
}

func TestRecord(t *testing.T) {
	attrs := value.NewMap()
	attrs.Set("name", value.Str("Test Facility"))
	attrs.Set("project", value.Int(12))
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rec, err := NewRecord(Dataset, "7", created, attrs)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	if rec.Text() != "Test Facility" {
		t.Errorf("Text() = %q", rec.Text())
	}
	if id, _ := rec.Get(AttrID); !value.Equal(id, value.Str("7")) {
		t.Errorf("id attribute = %v", id)
	}
	if c, ok := rec.Get(AttrCreated); !ok || c.Text() != "2025-03-01T10:00:00.000000000Z" {
		t.Errorf("created attribute = %v", c)
	}
	if attrs.Has(AttrID) {
		t.Error("NewRecord must not mutate the caller's map")
	}

	ds, _ := Builtin().Lookup(Dataset)
	if pid, ok := rec.ParentID(ds); !ok || pid != "12" {
		t.Errorf("ParentID = %q, %v", pid, ok)
	}

	anon, _ := NewRecord(Template, "3", time.Time{}, nil)
	if anon.Text() != "Template object (3)" {
		t.Errorf("fallback Text() = %q", anon.Text())
	}

	if _, err := NewRecord(Dataset, "", created, nil); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestRecord_CreatedSortsAsText(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	whole, _ := NewRecord(Dataset, "1", base, nil)
	frac, _ := NewRecord(Dataset, "2", base.Add(500*time.Millisecond), nil)

	a, _ := whole.Get(AttrCreated)
	b, _ := frac.Get(AttrCreated)
	if len(a.Text()) != len(b.Text()) {
		t.Errorf("created width differs: %q vs %q", a.Text(), b.Text())
	}
	if a.Text() >= b.Text() {
		t.Errorf("created %q must sort before %q", a.Text(), b.Text())
	}
}

func TestLess(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewRecord(Facility, "b", t0, nil)
	b, _ := NewRecord(Facility, "a", t0.Add(time.Second), nil)
	c, _ := NewRecord(Facility, "a", t0, nil)

	if !Less(a, b) {
		t.Error("earlier record must sort first")
	}
	if !Less(c, a) {
		t.Error("equal timestamps must sort by id")
	}
}

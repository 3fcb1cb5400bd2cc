package filter

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
	"github.com/kailas-cloud/dareg/internal/domain/search/catalog"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

func parse(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func datasetCatalog(t *testing.T, schemaDoc string) catalog.Catalog {
	t.Helper()
	typ, _ := entity.Builtin().Lookup(entity.Dataset)
	var sp *schema.Schema
	if schemaDoc != "" {
		s, err := schema.New("s1", "Sample", 1, "", parse(t, schemaDoc))
		if err != nil {
			t.Fatalf("schema: %v", err)
		}
		sp = &s
	}
	c, err := catalog.Allowed(typ, sp)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func record(t *testing.T, id, attrs string) entity.Record {
	t.Helper()
	m, ok := parse(t, attrs).AsMap()
	if !ok {
		t.Fatalf("attrs must be an object: %s", attrs)
	}
	r, err := entity.NewRecord(entity.Dataset, id, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), m)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

func matching(t *testing.T, p Predicate, recs []entity.Record) []string {
	t.Helper()
	var ids []string
	for _, r := range recs {
		if p.Match(r.Attributes()) {
			ids = append(ids, r.ID())
		}
	}
	return ids
}

const sampleSchema = `{"properties":{
	"age":{"type":"integer"},
	"weight":{"type":"number"},
	"tags":{"type":"array"},
	"sample":{"type":"object","properties":{"ph":{"type":"number"},"lab":{"type":"string"}}}
}}`

func TestCompile_Errors(t *testing.T) {
	cat := datasetCatalog(t, sampleSchema)

	tests := []struct {
		name    string
		filter  string
		kind    string
		message string
	}{
		{"not an object", `["name"]`, "syntax", "filters must be an object"},
		{"combinator child not object", `{"$and": ["x"]}`, "syntax", "filters must be an object"},
		{"and not a list", `{"$and": {"name": "x"}}`, "syntax", "$and requires a list"},
		{"mixed combinator", `{"$or": [], "name": "x"}`, "syntax", "must be the only key"},
		{"bad logical operator", `{"$nor": []}`, "syntax", "invalid logical operator '$nor' at this level"},
		{"unknown field", `{"owner": "bob"}`, "unknown_field", "invalid field: owner"},
		{"unknown nested field", `{"metadata.sample.temp": 3}`, "unknown_field", "invalid field: metadata.sample.temp"},
		{"unknown field inside not", `{"$not": {"secret": 1}}`, "unknown_field", "invalid field: secret"},
		{"type mismatch", `{"metadata.age": {"$gt": "five"}}`, "type_mismatch",
			"type mismatch for field 'metadata.age': expected integer, got str"},
		{"float for integer", `{"metadata.age": 4.5}`, "type_mismatch", "expected integer, got float"},
		{"in element mismatch", `{"metadata.sample.ph": {"$in": [7, "x"]}}`, "type_mismatch", "expected number, got str"},
		{"in needs list", `{"status": {"$in": "active"}}`, "syntax", "$in operator requires a list"},
		{"nin needs list", `{"status": {"$nin": 3}}`, "syntax", "$nin operator requires a list"},
		{"null needs bool", `{"metadata.sample": {"$null": "yes"}}`, "syntax", "$null operator requires a boolean"},
		{"unsupported operator", `{"name": {"$like": "x"}}`, "unsupported_operator", "unsupported operator: $like"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(parse(t, tt.filter), cat)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidFilter) {
				t.Errorf("error must wrap ErrInvalidFilter: %v", err)
			}
			if got := Kind(err); got != tt.kind {
				t.Errorf("Kind() = %q, want %q (%T)", got, tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.message)
			}
		})
	}
}

func TestCompile_TypeMismatchFields(t *testing.T) {
	_, err := Compile(parse(t, `{"metadata.age": {"$gt": "five"}}`), datasetCatalog(t, sampleSchema))

	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if tm.Field != "metadata.age" || tm.Expected != "integer" || tm.Actual != "str" {
		t.Errorf("got %+v", tm)
	}
}

func TestCompile_AcceptsTypedValues(t *testing.T) {
	cat := datasetCatalog(t, sampleSchema)
	for _, f := range []string{
		`{"metadata.age": {"$gte": 3}}`,
		`{"metadata.weight": 3}`,
		`{"metadata.weight": 3.5}`,
		`{"metadata.tags": {"$contains": "x"}}`,
		`{"metadata.sample": {"$null": false}}`,
		`{"metadata.sample.lab": {"$regex": "ETH"}}`,
		`{"name": {}}`,
		`{}`,
	} {
		if _, err := Compile(parse(t, f), cat); err != nil {
			t.Errorf("Compile(%s): %v", f, err)
		}
	}
}

func TestCompile_DepthLimit(t *testing.T) {
	cat := datasetCatalog(t, "")
	f := `{"name": "x"}`
	for i := 0; i < MaxDepth+1; i++ {
		f = fmt.Sprintf(`{"$not": %s}`, f)
	}

	_, err := Compile(parse(t, f), cat)
	var syn *SyntaxError
	if !errors.As(err, &syn) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestMatch_Scenario(t *testing.T) {
	recs := []entity.Record{
		record(t, "1", `{"name":"Test A","status":"active"}`),
		record(t, "2", `{"name":"Test B","status":"archived"}`),
		record(t, "3", `{"name":"Other","status":"active"}`),
	}
	p, err := Compile(parse(t,
		`{"$and":[{"name":{"$contains":"Test"}},{"$not":{"status":{"$eq":"archived"}}}]}`),
		datasetCatalog(t, ""))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	got := matching(t, p, recs)
	if len(got) != 1 || got[0] != "1" {
		t.Errorf("expected only record 1, got %v", got)
	}
}

func TestMatch_Operators(t *testing.T) {
	recs := []entity.Record{
		record(t, "a", `{"name":"Alpha","status":"new","metadata":{"age":3,"weight":1.5,"tags":["x","y"],"sample":{"ph":7,"lab":"ETH Zurich"}}}`),
		record(t, "b", `{"name":"beta","status":"finished","metadata":{"age":10,"tags":["y"],"sample":{"ph":null}}}`),
		record(t, "c", `{"name":"Gamma","description":null,"metadata":{}}`),
	}
	cat := datasetCatalog(t, sampleSchema)

	tests := []struct {
		filter string
		want   string
	}{
		{`{"status": "new"}`, "a"},
		{`{"status": {"$ne": "new"}}`, "b,c"},
		{`{"metadata.age": {"$gt": 3}}`, "b"},
		{`{"metadata.age": {"$gte": 3, "$lt": 10}}`, "a"},
		{`{"metadata.age": {"$lte": 10}}`, "a,b"},
		{`{"metadata.weight": 1.5}`, "a"},
		{`{"metadata.tags": {"$contains": "x"}}`, "a"},
		{`{"metadata.tags": {"$contains": ["y"]}}`, "a,b"},
		{`{"name": {"$contains": "alpha"}}`, ""},
		{`{"name": {"$regex": "ALP"}}`, "a"},
		{`{"metadata.sample.lab": {"$regex": "eth"}}`, "a"},
		{`{"status": {"$in": ["new", "finished"]}}`, "a,b"},
		{`{"status": {"$nin": ["new"]}}`, "b,c"},
		{`{"metadata.sample.ph": {"$null": true}}`, "b,c"},
		{`{"metadata.sample.ph": {"$null": false}}`, "a"},
		{`{"metadata.sample": {"$null": false}}`, "a,b"},
		{`{"description": null}`, "a,b,c"},
		{`{"$or": [{"name": "Gamma"}, {"metadata.age": 10}]}`, "b,c"},
		{`{"$or": []}`, "a,b,c"},
		{`{"$and": [{"status": "new"}, {"$or": []}]}`, "a"},
		{`{"$and": []}`, "a,b,c"},
		{`{"id": {"$in": ["a", "c"]}}`, "a,c"},
		{`{"created": {"$gte": "2025-01-01"}}`, "a,b,c"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			p, err := Compile(parse(t, tt.filter), cat)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got := strings.Join(matching(t, p, recs), ","); got != tt.want {
				t.Errorf("matched %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	recs := []entity.Record{
		record(t, "1", `{"name":"One","status":"new"}`),
		record(t, "2", `{"name":"Two","status":"finished"}`),
	}
	cat := datasetCatalog(t, "")
	expr := parse(t, `{"$or":[{"name":{"$regex":"o"}},{"status":"new"}]}`)

	p1, err1 := Compile(expr, cat)
	p2, err2 := Compile(expr, cat)
	if err1 != nil || err2 != nil {
		t.Fatalf("Compile: %v, %v", err1, err2)
	}
	if a, b := matching(t, p1, recs), matching(t, p2, recs); strings.Join(a, ",") != strings.Join(b, ",") {
		t.Errorf("results differ: %v vs %v", a, b)
	}
}

func TestPredicate_Fields(t *testing.T) {
	p, err := Compile(parse(t,
		`{"$and":[{"name":"x","status":{"$ne":"y"}},{"$or":[{"metadata.sample.ph":7},{"name":{"$regex":"z"}}]}]}`),
		datasetCatalog(t, sampleSchema))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if got := strings.Join(p.Fields(), ","); got != "name,status,metadata.sample.ph" {
		t.Errorf("Fields() = %s", got)
	}
	if p.IsMatchAll() {
		t.Error("non-empty predicate reported as match-all")
	}
	if !MatchAll().IsMatchAll() || !(Predicate{}).IsMatchAll() {
		t.Error("MatchAll must be match-all")
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"syntax":               &SyntaxError{Msg: "x"},
		"unknown_field":        &UnknownFieldError{Field: "x"},
		"type_mismatch":        &TypeMismatchError{Field: "x"},
		"unsupported_operator": &UnsupportedOperatorError{Op: "$x"},
		"":                     errors.New("other"),
	}
	for want, err := range cases {
		if got := Kind(fmt.Errorf("wrapped: %w", err)); got != want {
			t.Errorf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}

package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
	"github.com/kailas-cloud/dareg/internal/domain/search/catalog"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func datasetType(t *testing.T) entity.Type {
	t.Helper()
	ty, ok := entity.Builtin().Lookup(entity.Dataset)
	require.True(t, ok)
	return ty
}

func sampleSchema(t *testing.T) schema.Schema {
	t.Helper()
	doc, err := value.Parse([]byte(`{"properties": {
		"sample": {"type": "object", "properties": {
			"ph": {"type": "number"},
			"count": {"type": "integer"},
			"lab": {"type": "string"},
			"sterile": {"type": "boolean"},
			"tags": {"type": "array"}
		}}
	}}`))
	require.NoError(t, err)
	s, err := schema.New("s1", "Sample", 1, "", doc)
	require.NoError(t, err)
	return s
}

func compile(t *testing.T, expr string) filter.Predicate {
	t.Helper()
	if expr == "" {
		return filter.MatchAll()
	}
	v, err := value.Parse([]byte(expr))
	require.NoError(t, err)
	s := sampleSchema(t)
	cat, err := catalog.Allowed(datasetType(t), &s)
	require.NoError(t, err)
	p, err := filter.Compile(v, cat)
	require.NoError(t, err)
	return p
}

func rec(t *testing.T, model, id string, offset int, attrs string) entity.Record {
	t.Helper()
	v, err := value.Parse([]byte(attrs))
	require.NoError(t, err)
	m, _ := v.AsMap()
	r, err := entity.NewRecord(model, id, t0.Add(time.Duration(offset)*time.Minute), m)
	require.NoError(t, err)
	return r
}

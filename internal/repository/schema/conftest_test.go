package schema

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// mockRecords implements recordGetter for tests.
type mockRecords struct {
	records map[string]entity.Record
	err     error
	calls   int
}

func (m *mockRecords) Get(_ context.Context, model, id string) (entity.Record, error) {
	m.calls++
	if m.err != nil {
		return entity.Record{}, m.err
	}
	r, ok := m.records[model+"/"+id]
	if !ok {
		return entity.Record{}, domain.ErrNotFound
	}
	return r, nil
}

func schemaRecord(t *testing.T, id, attrs string) entity.Record {
	t.Helper()
	v, err := value.Parse([]byte(attrs))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, _ := v.AsMap()
	r, err := entity.NewRecord(entity.Schema, id, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), m)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}

func newMockRecords(t *testing.T) *mockRecords {
	t.Helper()
	return &mockRecords{records: map[string]entity.Record{
		"Schema/s1": schemaRecord(t, "s1", `{
			"name": "Sample",
			"version": 3,
			"description": "Sample sheet",
			"schema": {"properties": {"ph": {"type": "number"}}}
		}`),
		"Schema/s2": schemaRecord(t, "s2", `{"name": "Bare"}`),
	}}
}

package schema

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
)

// Fields is the filterable path listing of one schema.
type Fields struct {
	Schema string   `json:"schema"`
	Fields []string `json:"fields"`
}

// Service exposes schema metadata fields to clients building filters.
type Service struct {
	store  Store
	viewer Viewer
}

// New creates a schema Service.
func New(store Store, viewer Viewer) *Service {
	return &Service{store: store, viewer: viewer}
}

// MetadataFields lists the dotted property paths of a schema the actor may view.
func (s *Service) MetadataFields(ctx context.Context, a actor.Actor, id string) (Fields, error) {
	sch, err := s.store.Get(ctx, id)
	if err != nil {
		return Fields{}, fmt.Errorf("get schema %s: %w", id, err)
	}

	ok, err := s.viewer.CanView(ctx, a, entity.Schema, id)
	if err != nil {
		return Fields{}, fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return Fields{}, fmt.Errorf("schema %s: %w", id, domain.ErrPermissionDenied)
	}

	fields, err := sch.Fields()
	if err != nil {
		return Fields{}, fmt.Errorf("schema %s: %w", sch.Label(), err)
	}
	if fields == nil {
		fields = []string{}
	}
	return Fields{Schema: sch.Label(), Fields: fields}, nil
}

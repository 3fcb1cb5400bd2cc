package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Fixtures is a YAML document of records and grants to seed a store with.
type Fixtures struct {
	Records []FixtureRecord `yaml:"records"`
	Grants  []FixtureGrant  `yaml:"grants"`
}

// FixtureRecord is one record. A missing id gets a random UUID and a
// missing created timestamp takes the load time.
type FixtureRecord struct {
	Model      string         `yaml:"model"`
	ID         string         `yaml:"id"`
	Created    time.Time      `yaml:"created"`
	Attributes map[string]any `yaml:"attributes"`
}

// FixtureGrant gives an actor a role on one record.
type FixtureGrant struct {
	Actor string `yaml:"actor"`
	Model string `yaml:"model"`
	ID    string `yaml:"id"`
	Role  string `yaml:"role"`
}

// LoadSummary counts what a fixture load wrote.
type LoadSummary struct {
	Records int
	Actors  int
	Grants  int
}

// ParseFixtures decodes a fixture document.
func ParseFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	return f, nil
}

// Load writes fixture records and replaces the grants of every actor named
// in the fixtures.
func (b *Backend) Load(ctx context.Context, f Fixtures, now time.Time) (LoadSummary, error) {
	recs := make([]entity.Record, 0, len(f.Records))
	for i, fr := range f.Records {
		rec, err := b.fixtureRecord(fr, now)
		if err != nil {
			return LoadSummary{}, fmt.Errorf("records[%d]: %w", i, err)
		}
		recs = append(recs, rec)
	}

	byActor := make(map[string][]permission.Grant)
	for i, fg := range f.Grants {
		role, err := permission.ParseRole(fg.Role)
		if err != nil {
			return LoadSummary{}, fmt.Errorf("grants[%d]: %w", i, err)
		}
		if fg.Actor == "" || fg.Model == "" || fg.ID == "" {
			return LoadSummary{}, fmt.Errorf("grants[%d]: actor, model and id are required", i)
		}
		byActor[fg.Actor] = append(byActor[fg.Actor], permission.Grant{
			Actor: fg.Actor, Model: fg.Model, ObjectID: fg.ID, Role: role,
		})
	}

	if err := b.Records.PutMany(ctx, recs); err != nil {
		return LoadSummary{}, fmt.Errorf("write records: %w", err)
	}

	actors := make([]string, 0, len(byActor))
	for a := range byActor {
		actors = append(actors, a)
	}
	sort.Strings(actors)
	for _, a := range actors {
		if err := b.Grants.Replace(ctx, a, byActor[a]); err != nil {
			return LoadSummary{}, fmt.Errorf("write grants of %s: %w", a, err)
		}
	}

	return LoadSummary{Records: len(recs), Actors: len(actors), Grants: len(f.Grants)}, nil
}

func (b *Backend) fixtureRecord(fr FixtureRecord, now time.Time) (entity.Record, error) {
	t, ok := b.Types.Lookup(fr.Model)
	if !ok {
		return entity.Record{}, fmt.Errorf("unknown model %q", fr.Model)
	}
	id := fr.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := fr.Created
	if created.IsZero() {
		created = now
	}

	attrs := value.NewMap()
	if fr.Attributes != nil {
		v, err := value.FromAny(fr.Attributes)
		if err != nil {
			return entity.Record{}, fmt.Errorf("%s %s: %w", t.Name(), id, err)
		}
		attrs, _ = v.AsMap()
	}
	return entity.NewRecord(t.Name(), id, created, attrs)
}

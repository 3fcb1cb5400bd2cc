package dareg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/kailas-cloud/dareg/internal/backend"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/search/request"
	"github.com/kailas-cloud/dareg/internal/domain/search/result"
	"github.com/kailas-cloud/dareg/internal/domain/value"
	schemauc "github.com/kailas-cloud/dareg/internal/usecase/schema"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type searchUseCase interface {
	Search(ctx context.Context, a actor.Actor, req request.Request, base *url.URL) (result.Page, error)
}

type schemaUseCase interface {
	MetadataFields(ctx context.Context, a actor.Actor, id string) (schemauc.Fields, error)
}

type store interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context, f backend.Fixtures, now time.Time) (backend.LoadSummary, error)
	Close()
}

// Client is the dareg SDK entry point.
type Client struct {
	store     store
	searchSvc searchUseCase
	schemaSvc schemaUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a dareg Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("dareg: database required (use WithValkey, WithRedis, WithPostgres or WithSQLite)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	b, err := backend.Open(ctx, backend.Config{
		Driver:           cfg.driver,
		Addrs:            cfg.addrs,
		Password:         cfg.password,
		DSN:              cfg.dsn,
		KeyPrefix:        keyPrefix(cfg.keyPrefix),
		ReadinessTimeout: defaultReadinessTimeout,
		AutoMigrate:      cfg.autoMigrate,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("dareg: %w", err)
	}
	if cfg.logger != nil {
		cfg.logger.Debug("connected", slog.String("driver", cfg.driver))
	}

	svc := b.NewServices(backend.ServiceConfig{
		MaxParallel:     cfg.maxParallel,
		SchemaCacheSize: cfg.schemaCacheSize,
	})
	return &Client{
		store:     b,
		searchSvc: svc.Search,
		schemaSvc: svc.Schemas,
		healthSvc: svc.Health,
		obs:       obs,
	}, nil
}

func keyPrefix(p string) string {
	if p == "" {
		return "dareg:"
	}
	return p
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a permission-scoped search across every record kind the
// request names, or all of them.
func (c *Client) Search(ctx context.Context, a Actor, req SearchRequest) (_ Page, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	r, err := toRequest(req)
	if err != nil {
		return Page{}, err
	}
	page, err := c.searchSvc.Search(ctx, actor.New(a.ID, a.Superuser), r, nil)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	c.obs.results(page.Count)
	return fromPage(page), nil
}

// SchemaFields lists the filterable metadata paths of a schema the actor may view.
func (c *Client) SchemaFields(ctx context.Context, a Actor, schemaID string) (_ SchemaFields, err error) {
	start := time.Now()
	defer func() { c.obs.observe("schema.fields", start, err) }()

	f, err := c.schemaSvc.MetadataFields(ctx, actor.New(a.ID, a.Superuser), schemaID)
	if err != nil {
		return SchemaFields{}, fmt.Errorf("schema fields: %w", err)
	}
	return SchemaFields{Schema: f.Schema, Fields: f.Fields}, nil
}

// LoadSummary counts what Load wrote.
type LoadSummary struct {
	Records int
	Actors  int
	Grants  int
}

// Load seeds the store from a YAML fixture document of records and grants.
// Grants replace those already held by every actor the document names.
func (c *Client) Load(ctx context.Context, r io.Reader) (_ LoadSummary, err error) {
	start := time.Now()
	defer func() { c.obs.observe("load", start, err) }()

	f, err := backend.ParseFixtures(r)
	if err != nil {
		return LoadSummary{}, err //nolint:wrapcheck // already prefixed
	}
	sum, err := c.store.Load(ctx, f, time.Now().UTC())
	if err != nil {
		return LoadSummary{}, fmt.Errorf("load: %w", err)
	}
	return LoadSummary(sum), nil
}

func toRequest(req SearchRequest) (request.Request, error) {
	filters := value.NullValue()
	if req.Filters != nil {
		v, err := value.FromAny(req.Filters.document())
		if err != nil {
			return request.Request{}, fmt.Errorf("%w: filters: %w", ErrInvalidFilter, err)
		}
		filters = v
	}

	page := request.NewPage(&req.Limit, &req.Offset, request.DefaultLimit, request.MaxLimit)
	r, err := request.New(req.Query, filters, req.Schema, req.Model, page)
	if err != nil {
		return request.Request{}, err //nolint:wrapcheck // sentinel-wrapped client error
	}
	return r, nil
}

func fromPage(p result.Page) Page {
	out := Page{Count: p.Count, Results: make([]Result, len(p.Results))}
	for i, r := range p.Results {
		out.Results[i] = Result{ID: r.ID, Model: r.Model, Text: r.Text}
		if r.Highlights != nil {
			out.Results[i].Highlights, _ = value.Obj(r.Highlights).Interface().(map[string]any)
		}
	}
	return out
}

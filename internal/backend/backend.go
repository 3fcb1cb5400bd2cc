// Package backend opens the configured record store and assembles the
// search services on top of it. The binary and the SDK share it.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/dareg/internal/db/redis"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/permission"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	grantrepo "github.com/kailas-cloud/dareg/internal/repository/grant"
	recordrepo "github.com/kailas-cloud/dareg/internal/repository/record"
	schemarepo "github.com/kailas-cloud/dareg/internal/repository/schema"
	"github.com/kailas-cloud/dareg/internal/repository/sqlstore"
	healthuc "github.com/kailas-cloud/dareg/internal/usecase/health"
	permissionuc "github.com/kailas-cloud/dareg/internal/usecase/permission"
	schemauc "github.com/kailas-cloud/dareg/internal/usecase/schema"
	searchuc "github.com/kailas-cloud/dareg/internal/usecase/search"
)

// Supported drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = sqlstore.DriverPostgres
	DriverSQLite   = sqlstore.DriverSQLite
)

// Records is what the services need from a record store.
type Records interface {
	Put(ctx context.Context, rec entity.Record) error
	PutMany(ctx context.Context, recs []entity.Record) error
	Get(ctx context.Context, model, id string) (entity.Record, error)
	Execute(ctx context.Context, t entity.Type, scope permission.Scope, pred filter.Predicate) ([]entity.Record, error)
	Refs(ctx context.Context, model string) ([]permission.Ref, error)
}

// Grants reads and replaces per-actor grants.
type Grants interface {
	Grants(ctx context.Context, actorID string) ([]permission.Grant, error)
	Replace(ctx context.Context, actorID string, grants []permission.Grant) error
}

type conn interface {
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Config selects and parameterises the store.
type Config struct {
	Driver           string
	Addrs            []string
	Password         string
	DSN              string
	KeyPrefix        string
	ReadinessTimeout time.Duration
	AutoMigrate      bool
}

// Backend is an open record store.
type Backend struct {
	Records Records
	Grants  Grants
	Types   *entity.Registry
	conn    conn
}

// Open connects to the store named by cfg.Driver and waits until it answers.
func Open(ctx context.Context, cfg Config, types *entity.Registry) (*Backend, error) {
	if types == nil {
		types = entity.Builtin()
	}
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = 10 * time.Second
	}

	b := &Backend{Types: types}
	switch cfg.Driver {
	case DriverValkey, DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		b.conn = store
		b.Records = recordrepo.New(store, types, cfg.KeyPrefix)
		b.Grants = grantrepo.New(store, cfg.KeyPrefix)
	case DriverPostgres, DriverSQLite:
		if cfg.AutoMigrate {
			if _, err := sqlstore.Migrate(cfg.Driver, cfg.DSN); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN, types)
		if err != nil {
			return nil, err //nolint:wrapcheck // already names the driver
		}
		b.conn = store
		b.Records = store
		b.Grants = store
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := b.conn.WaitForReady(ctx, cfg.ReadinessTimeout); err != nil {
		b.conn.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return b, nil
}

// Ping checks store connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.conn.Ping(ctx) //nolint:wrapcheck // health check reports the raw error
}

// Close releases the store connection.
func (b *Backend) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// ServiceConfig tunes the assembled services.
type ServiceConfig struct {
	MaxParallel     int
	SchemaCacheSize int
	SchemaCacheTTL  time.Duration
	// SchemaCacheTotal receives cache hit/miss counts; may be nil.
	SchemaCacheTotal *prometheus.CounterVec
	Recorder         searchuc.Recorder
	Logger           *zap.Logger
}

// Services are the use cases served over HTTP, the CLI and the SDK.
type Services struct {
	Search  *searchuc.Service
	Schemas *schemauc.Service
	Health  *healthuc.Service
	Oracle  *permissionuc.Oracle
	Cache   *schemarepo.Cached
}

// NewServices wires the permission oracle, schema cache and search
// orchestrator over b.
func (b *Backend) NewServices(cfg ServiceConfig) *Services {
	if cfg.SchemaCacheSize <= 0 {
		cfg.SchemaCacheSize = 256
	}
	if cfg.SchemaCacheTTL <= 0 {
		cfg.SchemaCacheTTL = 5 * time.Minute
	}

	oracle := permissionuc.NewOracle(b.Types, b.Grants, b.Records)
	cache := schemarepo.NewCached(
		schemarepo.New(b.Records), cfg.SchemaCacheSize, cfg.SchemaCacheTTL, cfg.SchemaCacheTotal, cfg.Logger,
	)

	opts := []searchuc.Option{searchuc.WithMaxParallel(cfg.MaxParallel)}
	if cfg.Recorder != nil {
		opts = append(opts, searchuc.WithRecorder(cfg.Recorder))
	}

	return &Services{
		Search:  searchuc.New(b.Types, oracle, cache, b.Records, opts...),
		Schemas: schemauc.New(cache, oracle),
		Health:  healthuc.New(b),
		Oracle:  oracle,
		Cache:   cache,
	}
}

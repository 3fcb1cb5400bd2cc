// Package sqlstore keeps records and grants in PostgreSQL or SQLite and
// narrows searches with JSON predicates evaluated by the database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/kailas-cloud/dareg/internal/db"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
)

// Supported drivers, matching config.Database.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// typeLookup resolves entity types for parent links.
type typeLookup interface {
	Lookup(name string) (entity.Type, bool)
}

// Store is a database/sql backed record and grant store.
type Store struct {
	db      *sql.DB
	dialect dialect
	types   typeLookup
}

func dialectFor(driver string) (dialect, string, error) {
	switch driver {
	case DriverPostgres:
		return postgres{}, "pgx", nil
	case DriverSQLite:
		return sqlite{}, "sqlite3", nil
	default:
		return nil, "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// Open connects to the database named by dsn.
func Open(ctx context.Context, driver, dsn string, types typeLookup) (*Store, error) {
	_, sqlDriver, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(conn, driver, types)
}

// New wraps an existing connection pool.
func New(conn *sql.DB, driver string, types typeLookup) (*Store, error) {
	d, _, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: conn, dialect: d, types: types}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Store) query(q string) string { return s.dialect.rebind(q) }

// withTx runs fn inside a transaction.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: "BEGIN", Err: err}
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: "COMMIT", Err: err}
	}
	return nil
}

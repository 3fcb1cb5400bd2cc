package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/kailas-cloud/dareg/internal/db"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies pending migrations over a dedicated connection and
// returns the resulting schema version.
func Migrate(driver, dsn string) (uint, error) {
	_, sqlDriver, err := dialectFor(driver)
	if err != nil {
		return 0, err
	}

	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	conn, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", driver, err)
	}
	defer conn.Close()

	var target database.Driver
	switch driver {
	case DriverPostgres:
		target, err = pgxmigrate.WithInstance(conn, &pgxmigrate.Config{})
	default:
		target, err = sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}
	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return version, nil
}

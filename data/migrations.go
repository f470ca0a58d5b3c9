package data

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migrateSqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date. Running it on a migrated database is a no-op.
func Migrate(db *sqlx.DB) error {
	var (
		driver database.Driver
		dir    string
		name   string
		err    error
	)

	switch db.DriverName() {
	case pgxDriverName:
		dir, name = "migrations/postgres", "postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case sqliteDriverName:
		dir, name = "migrations/sqlite", "sqlite"
		driver, err = migrateSqlite.WithInstance(db.DB, &migrateSqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		slog.Error("migration failed on WithInstance", slog.String("driver", name), slog.String("err", err.Error()))
		return err
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		slog.Error("migration failed on iofs.New", slog.String("driver", name), slog.String("err", err.Error()))
		return err
	}

	// m.Close is not called: it would close db as well
	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		slog.Error("migration failed on migrate.NewWithInstance", slog.String("driver", name), slog.String("err", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("migration failed on m.Up()", slog.String("driver", name), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// Package migration applies the SQL files under migrations/ with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Runner handles database migrations
type Runner struct {
	databaseURL string
	sourceURL   string
	log         *zap.Logger
}

// NewRunner creates a runner for the postgres:// databaseURL reading files
// from migrationsPath. A nil log discards output.
func NewRunner(databaseURL, migrationsPath string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		databaseURL: databaseURL,
		sourceURL:   "file://" + migrationsPath,
		log:         log.With(zap.String("component", "migration")),
	}
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	return r.with(func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			r.log.Info("schema is up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		r.log.Info("migrations applied")
		return nil
	})
}

// Down rolls back the last migration
func (r *Runner) Down() error {
	return r.with(func(m *migrate.Migrate) error {
		err := m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			r.log.Info("nothing to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		r.log.Info("last migration rolled back")
		return nil
	})
}

// Force records version as applied and clears the dirty flag without running
// anything.
func (r *Runner) Force(version int) error {
	r.log.Warn("forcing migration version", zap.Int("version", version))
	return r.with(func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		return nil
	})
}

// Version reports the applied version. A fresh database is version 0.
func (r *Runner) Version() (version uint, dirty bool, err error) {
	err = r.with(func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		return nil
	})
	return version, dirty, err
}

func (r *Runner) with(fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("postgres", r.databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(r.sourceURL, "postgres", driver)
	if err != nil {
		driver.Close()
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// AutoMigrate brings the schema up to date before the dev server starts. It
// refuses to touch a dirty database.
func AutoMigrate(databaseURL, migrationsPath string, log *zap.Logger) error {
	runner := NewRunner(databaseURL, migrationsPath, log)

	from, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("database in dirty state at version %d; run `notifyd migrate force`", from)
	}

	if err := runner.Up(); err != nil {
		return err
	}

	to, _, err := runner.Version()
	if err != nil {
		return err
	}
	runner.log.Info("schema ready", zap.Uint("from_version", from), zap.Uint("to_version", to))
	return nil
}

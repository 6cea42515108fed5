package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

// Migrate applies all pending migrations for the active driver and returns
// the resulting schema version.
func (s *Store) Migrate() (uint, error) {
	m, err := s.migrator()
	if err != nil {
		return 0, s.fail("migrate", err)
	}
	// The sqlite driver closes the shared pool on Close; the postgres driver
	// only releases the connection it pinned.
	if s.driver == DriverPostgres {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, s.fail("migrate", fmt.Errorf("run migrations: %w", err))
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, s.fail("migrate", fmt.Errorf("read version: %w", err))
	}
	if dirty {
		return version, s.fail("migrate", fmt.Errorf("schema version %d is dirty", version))
	}
	return version, nil
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch s.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(s.db.DB, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s driver: %w", s.driver, err)
	}

	source, err := iofs.New(migrationFS, "migrations/"+s.driver)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, s.driver, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// Package store persists articles, sources, scrape sessions and categories
// in a relational database. SQLite (modernc) is the default backend and
// PostgreSQL (lib/pq) is supported through the same queries.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store is the relational backend. Queries are written with ? placeholders
// and rebound for the active driver.
type Store struct {
	db     *sqlx.DB
	driver string

	// mu serializes the check-then-insert of new articles.
	mu sync.Mutex

	now    func() time.Time
	logger *slog.Logger
}

// Open connects to the configured database and applies migrations when
// AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	logger = logger.With("component", "store", "driver", cfg.Driver)

	dsn := cfg.DSN
	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, &types.ConfigError{Field: "database.driver", Err: fmt.Errorf("unsupported driver %q", cfg.Driver)}
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, &types.StorageError{Backend: cfg.Driver, Op: "connect", Err: err}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Store{
		db:     db,
		driver: cfg.Driver,
		now:    time.Now,
		logger: logger,
	}

	if cfg.AutoMigrate {
		version, err := s.Migrate()
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("migrations applied", "version", version)
	}

	logger.Info("store opened")
	return s, nil
}

// sqliteDSN makes modernc write timestamps in a sortable layout so that
// range predicates on TIMESTAMP columns compare correctly.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

// Driver returns the database driver name.
func (s *Store) Driver() string { return s.driver }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.logger.Info("store closing")
	return s.db.Close()
}

func (s *Store) fail(op string, err error) error {
	return &types.StorageError{Backend: s.driver, Op: op, Err: err}
}

// in expands slice arguments and rebinds placeholders for the driver.
func (s *Store) in(query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return s.db.Rebind(query), args, nil
}

package sqlstore

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"docdesk/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

// NewMigrator builds a migrate instance for the configured store using the embedded migrations.
func NewMigrator(cfg *config.CacheConfig) (*migrate.Migrate, error) {
	var dir, dbURL string
	switch cfg.Driver {
	case DriverSQLite:
		dir = "migrations/sqlite"
		dbURL = "sqlite://" + strings.TrimPrefix(cfg.SQLitePath, "file:")
	case DriverPostgres:
		dir = "migrations/postgres"
		dbURL = pgx5URL(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations.
func Migrate(cfg *config.CacheConfig) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func pgx5URL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

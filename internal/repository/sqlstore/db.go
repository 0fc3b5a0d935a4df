// Package sqlstore persists the local cache and credentials in SQLite or PostgreSQL.
package sqlstore

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"docdesk/internal/config"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NewDB opens the configured database and applies pending migrations.
func NewDB(cfg *config.CacheConfig) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = sqlx.Connect("sqlite", sqliteDSN(cfg.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		// A single writer avoids SQLITE_BUSY between concurrent poll loops.
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sqlx.Connect("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres store: %w", err)
		}
		if cfg.MaxOpen > 0 {
			db.SetMaxOpenConns(cfg.MaxOpen)
		}
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}

	if err := Migrate(cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

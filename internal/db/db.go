// Package db opens the relational store and applies the embedded migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers "sqlite"

	"Picfeed/internal/db/migrations"
)

// Driver selects the database/sql driver and SQL dialect
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverPgx      Driver = "pgx"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver validates a DATABASE_DRIVER value
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case DriverPostgres, DriverPgx, DriverSQLite:
		return d, nil
	case "":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want postgres, pgx or sqlite)", s)
	}
}

// IsPostgres reports whether the driver talks to PostgreSQL
func (d Driver) IsPostgres() bool {
	return d == DriverPostgres || d == DriverPgx
}

func (d Driver) dialect() goose.Dialect {
	if d == DriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

func (d Driver) migrations() (fs.FS, error) {
	if d == DriverSQLite {
		return fs.Sub(migrations.SQLite, "sqlite")
	}
	return fs.Sub(migrations.Postgres, "postgres")
}

// Open connects and pings the database.
// SQLite connections get foreign keys enabled and a single open connection,
// which also keeps ":memory:" databases shared across queries.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	conn, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return conn, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate applies all pending migrations for the driver's dialect
func Migrate(ctx context.Context, conn *sql.DB, driver Driver) error {
	fsys, err := driver.migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	provider, err := goose.NewProvider(driver.dialect(), conn, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Package sqlite implements lockbox.FileStore on top of SQLite using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/lockbox"

	_ "modernc.org/sqlite" // SQLite driver
)

// busyTimeout makes concurrent writers wait for the lock instead of failing
// with SQLITE_BUSY.
const busyTimeout = "_pragma=busy_timeout(5000)"

type database struct {
	db     *sql.DB
	tables lockbox.Tables
}

// Connect opens the SQLite database at dsn (a path, a file: URI or
// ":memory:") and pings it.
func Connect(ctx context.Context, dsn string, tables lockbox.Tables) (*database, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// every connection to :memory: opens its own empty database
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: ping: %w", err)
	}

	return &database{db: db, tables: tables}, nil
}

// withPragmas adds the busy timeout unless dsn already sets pragmas.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + busyTimeout
	}
	return dsn + "?" + busyTimeout
}

func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the items table if it is missing.
func (d *database) Migrate(ctx context.Context) error {
	if err := createItemsTable(ctx, d.db, d.tables.Items); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks the items table has the expected columns.
func (d *database) Validate(ctx context.Context) error {
	return validateItemsTable(ctx, d.db, d.tables.Items)
}

// GetStore returns the FileStore backed by the items table.
func (d *database) GetStore() lockbox.FileStore {
	return &store{db: d.db, tableName: d.tables.Items}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}

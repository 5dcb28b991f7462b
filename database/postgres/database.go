// Package postgres implements lockbox.FileStore on PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lockbox"
)

type database struct {
	pool   *pgxpool.Pool
	tables lockbox.Tables
}

// Connect opens a pgx pool for dsn and checks the server answers. The pool
// reports itself as "lockbox" unless dsn sets application_name.
func Connect(ctx context.Context, dsn string, tables lockbox.Tables) (*database, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "lockbox"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &database{pool: pool, tables: tables}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the items table if it is missing.
func (d *database) Migrate(ctx context.Context) error {
	if err := createItemsTable(ctx, d.pool, d.tables.Items); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks the items table has the expected columns.
func (d *database) Validate(ctx context.Context) error {
	return validateItemsTable(ctx, d.pool, d.tables.Items)
}

// GetStore returns the FileStore backed by the items table.
func (d *database) GetStore() lockbox.FileStore {
	return &store{pool: d.pool, tableName: d.tables.Items}
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}

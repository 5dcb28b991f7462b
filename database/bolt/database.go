// Package bolt implements lockbox.FileStore on an embedded bbolt file.
// Each table maps to one bucket whose keys are kept in byte order, which
// gives List its ascending order and cursor seeks for free.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/lockbox"
	bolt "go.etcd.io/bbolt"
)

const openTimeout = time.Second

type database struct {
	db     *bolt.DB
	tables lockbox.Tables
}

// Connect opens (or creates) the bbolt file at path.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, path string, tables lockbox.Tables) (*database, error) {
	if path == "" {
		return nil, errors.New("connect bolt: path is required")
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("connect bolt: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("connect bolt: %w", err)
	}

	return &database{db: db, tables: tables}, nil
}

// Ping checks the file is still open and readable.
func (d *database) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(func(*bolt.Tx) error { return nil })
}

// Migrate creates the items bucket if it does not exist.
func (d *database) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	err := d.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(d.tables.Items))
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate: create bucket %s: %w", d.tables.Items, err)
	}
	return nil
}

// Validate checks the items bucket exists.
func (d *database) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return d.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(d.tables.Items)) == nil {
			return fmt.Errorf("validate schema %s: bucket %s does not exist", d.tables.Items, d.tables.Items)
		}
		return nil
	})
}

// GetStore returns the FileStore backed by the items bucket.
func (d *database) GetStore() lockbox.FileStore {
	return &store{db: d.db, bucket: []byte(d.tables.Items)}
}

func (d *database) Close() error {
	return d.db.Close()
}

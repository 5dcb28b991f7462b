// Package redis implements lockbox.FileStore on Redis.
//
// Values live in plain string keys "<table>:<key>". A sorted set
// "<table>:index" with every score at zero holds the keys so List can walk
// them in lexicographic order with ZRANGEBYLEX.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sagarc03/lockbox"
)

type database struct {
	client *redis.Client
	tables lockbox.Tables
}

// Connect parses a redis:// or rediss:// URL and opens a client.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables lockbox.Tables) (*database, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: ping: %w", err)
	}

	return &database{client: client, tables: tables}, nil
}

func (d *database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Migrate is a no-op; Redis keys need no schema.
func (d *database) Migrate(ctx context.Context) error {
	return d.Ping(ctx)
}

// Validate checks that the index key, if present, is a sorted set.
func (d *database) Validate(ctx context.Context) error {
	kind, err := d.client.Type(ctx, indexKey(d.tables.Items)).Result()
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", d.tables.Items, err)
	}
	if kind != "none" && kind != "zset" {
		return fmt.Errorf("validate schema %s: index has type %s, want zset", d.tables.Items, kind)
	}
	return nil
}

// GetStore returns the FileStore namespaced under the items table name.
func (d *database) GetStore() lockbox.FileStore {
	return &store{client: d.client, namespace: d.tables.Items}
}

func (d *database) Close() error {
	return d.client.Close()
}

func indexKey(namespace string) string {
	return namespace + ":index"
}

package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/database/bolt"
	"github.com/sagarc03/lockbox/database/memory"
	"github.com/sagarc03/lockbox/database/postgres"
	"github.com/sagarc03/lockbox/database/redis"
	"github.com/sagarc03/lockbox/database/sqlite"
	"github.com/sagarc03/lockbox/filesystem"
	"github.com/sagarc03/lockbox/objectstore"
)

// Supported backend types.
const (
	TypeSQLite     = "sqlite"
	TypePostgres   = "postgres"
	TypeBolt       = "bolt"
	TypeRedis      = "redis"
	TypeS3         = "s3"
	TypeFilesystem = "filesystem"
	TypeMemory     = "memory"
)

// Database is a connected storage backend.
type Database interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates the tables, buckets or directories the store needs.
	// It is safe to run more than once.
	Migrate(ctx context.Context) error
	// Validate checks that what Migrate creates is present and well formed.
	Validate(ctx context.Context) error
	// GetStore returns the FileStore backed by this connection.
	GetStore() lockbox.FileStore
	Close() error
}

// Config holds the configuration for connecting to a storage backend.
type Config struct {
	// Type is one of the Type* constants.
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres bolt redis s3 filesystem memory"`
	// DSN is the data source name (connection string, file or directory path).
	DSN string `mapstructure:"dsn"`
	// Tables names the table, bucket or key namespace items are kept in.
	Tables lockbox.Tables `mapstructure:"tables"`
}

// Connect opens the configured backend. Callers run Migrate or Validate
// before using the store.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case TypeSQLite:
		return opened(sqlite.Connect(ctx, cfg.DSN, cfg.Tables))
	case TypePostgres:
		return opened(postgres.Connect(ctx, cfg.DSN, cfg.Tables))
	case TypeBolt:
		return opened(bolt.Connect(ctx, cfg.DSN, cfg.Tables))
	case TypeRedis:
		return opened(redis.Connect(ctx, cfg.DSN, cfg.Tables))
	case TypeS3:
		return opened(objectstore.Connect(ctx, cfg.DSN, cfg.Tables))
	case TypeFilesystem:
		return opened(connectFilesystem(cfg.DSN))
	case TypeMemory:
		return &memoryDatabase{store: memory.NewStore()}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// opened keeps a failed backend constructor from leaking a typed nil.
func opened(db Database, err error) (Database, error) {
	if err != nil {
		return nil, err
	}
	return db, nil
}

type memoryDatabase struct {
	store  *memory.Store
	closed bool
}

func (d *memoryDatabase) Ping(ctx context.Context) error {
	if d.closed {
		return errors.New("memory database is closed")
	}
	return ctx.Err()
}

func (d *memoryDatabase) Migrate(ctx context.Context) error  { return d.Ping(ctx) }
func (d *memoryDatabase) Validate(ctx context.Context) error { return d.Ping(ctx) }
func (d *memoryDatabase) GetStore() lockbox.FileStore        { return d.store }

func (d *memoryDatabase) Close() error {
	d.closed = true
	return nil
}

// filesystemDatabase keeps items as files in one directory.
type filesystemDatabase struct {
	dir  string
	root *os.Root
}

func connectFilesystem(dir string) (*filesystemDatabase, error) {
	if dir == "" {
		return nil, errors.New("connect filesystem: directory is required")
	}
	return &filesystemDatabase{dir: dir}, nil
}

func (d *filesystemDatabase) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.root == nil {
		return d.Validate(ctx)
	}
	if _, err := d.root.Stat("."); err != nil {
		return fmt.Errorf("ping filesystem: %w", err)
	}
	return nil
}

func (d *filesystemDatabase) Migrate(ctx context.Context) error {
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return fmt.Errorf("migrate: create %s: %w", d.dir, err)
	}
	return d.open()
}

func (d *filesystemDatabase) Validate(ctx context.Context) error {
	info, err := os.Stat(d.dir)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("validate: %s is not a directory", d.dir)
	}
	return d.open()
}

func (d *filesystemDatabase) open() error {
	if d.root != nil {
		return nil
	}
	root, err := os.OpenRoot(d.dir)
	if err != nil {
		return fmt.Errorf("open root %s: %w", d.dir, err)
	}
	d.root = root
	return nil
}

// GetStore must be called after Migrate or Validate has opened the root.
func (d *filesystemDatabase) GetStore() lockbox.FileStore {
	return filesystem.NewFileStore(d.root)
}

func (d *filesystemDatabase) Close() error {
	if d.root == nil {
		return nil
	}
	err := d.root.Close()
	d.root = nil
	return err
}

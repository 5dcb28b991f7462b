package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   database.TypeSQLite,
		DSN:    ":memory:",
		Tables: lockbox.Tables{Items: tableName},
	}
}

func setupTestDB(t *testing.T, cfg database.Config) database.Database {
	t.Helper()

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()

	cfg := database.Config{Type: "invalid", DSN: "whatever", Tables: lockbox.Tables{Items: "items"}}

	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_EmptyType(t *testing.T) {
	t.Parallel()

	cfg := database.Config{DSN: ":memory:", Tables: lockbox.Tables{Items: "items"}}

	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_InvalidTables(t *testing.T) {
	t.Parallel()

	cfg := database.Config{Type: database.TypeMemory, Tables: lockbox.Tables{Items: "Bad-Name"}}

	_, err := database.Connect(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDatabase_Validate_BeforeMigration(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, newTestConfig("validate_before_test"))

	err := db.Validate(context.Background())
	assert.Error(t, err, "validate should fail without tables")
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

// The embedded backends all need to behave the same through the interface.
func TestBackends_StoreContract(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) database.Config{
		database.TypeSQLite: func(t *testing.T) database.Config { return newTestConfig("contract_items") },
		database.TypeBolt: func(t *testing.T) database.Config {
			return database.Config{Type: database.TypeBolt, DSN: filepath.Join(t.TempDir(), "lockbox.db"), Tables: lockbox.Tables{Items: "items"}}
		},
		database.TypeFilesystem: func(t *testing.T) database.Config {
			return database.Config{Type: database.TypeFilesystem, DSN: filepath.Join(t.TempDir(), "items"), Tables: lockbox.Tables{Items: "items"}}
		},
		database.TypeMemory: func(t *testing.T) database.Config {
			return database.Config{Type: database.TypeMemory, Tables: lockbox.Tables{Items: "items"}}
		},
	}

	for name, cfgFn := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			db := setupTestDB(t, cfgFn(t))
			require.NoError(t, db.Migrate(ctx))
			require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
			require.NoError(t, db.Validate(ctx))
			require.NoError(t, db.Ping(ctx))

			store := db.GetStore()
			require.NotNil(t, store)

			_, err := store.Get(ctx, "file:missing")
			assert.ErrorIs(t, err, lockbox.ErrNotFound)

			for _, k := range []string{"file:b", "file:a", "session:x", "file:c"} {
				require.NoError(t, store.Put(ctx, k, "value-"+k))
			}
			require.NoError(t, store.Put(ctx, "file:a", "replaced"))

			value, err := store.Get(ctx, "file:a")
			require.NoError(t, err)
			assert.Equal(t, "replaced", value)

			first, err := store.List(ctx, lockbox.ListQuery{Prefix: "file:", Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"file:a", "file:b"}, first.Keys)

			second, err := store.List(ctx, lockbox.ListQuery{Prefix: "file:", Limit: 2, Cursor: first.NextCursor})
			require.NoError(t, err)
			assert.Equal(t, []string{"file:c"}, second.Keys)
			assert.Empty(t, second.NextCursor)

			_, err = store.List(ctx, lockbox.ListQuery{Prefix: "file:", Limit: 2, Cursor: "***"})
			assert.ErrorIs(t, err, lockbox.ErrInvalidInput)
		})
	}
}

// Service runs unchanged on top of any backend.
func TestBackends_ServiceRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t, database.Config{Type: database.TypeBolt, DSN: filepath.Join(t.TempDir(), "lockbox.db"), Tables: lockbox.Tables{Items: "items"}})
	require.NoError(t, db.Migrate(ctx))

	service, err := lockbox.NewService(db.GetStore(), lockbox.ServiceConfig{BcryptCost: 4})
	require.NoError(t, err)

	_, err = service.Upload(ctx, lockbox.UploadRequest{Filename: "a.txt", Content: "hi", Password: "pw"})
	require.NoError(t, err)

	item, err := service.Read(ctx, "a.txt", "pw")
	require.NoError(t, err)
	assert.Equal(t, "hi", item.Content)

	names, err := service.Search(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)
}

func TestFilesystem_MigrateCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "not", "yet")

	db := setupTestDB(t, database.Config{Type: database.TypeFilesystem, DSN: dir, Tables: lockbox.Tables{Items: "items"}})
	assert.Error(t, db.Ping(ctx), "missing directory")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Ping(ctx))
	assert.DirExists(t, dir)
}

func TestConnect_FilesystemRequiresDirectory(t *testing.T) {
	_, err := database.Connect(context.Background(), database.Config{
		Type:   database.TypeFilesystem,
		Tables: lockbox.Tables{Items: "items"},
	})
	assert.ErrorContains(t, err, "directory is required")
}

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/database/sqlite"
	"github.com/stretchr/testify/require"
)

// openTestDatabase opens a fresh file-backed database per test.
func openTestDatabase(t *testing.T, table string) interface {
	Migrate(context.Context) error
	Validate(context.Context) error
	Ping(context.Context) error
	GetStore() lockbox.FileStore
} {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lockbox.db")
	db, err := sqlite.Connect(context.Background(), path, lockbox.Tables{Items: table})
	require.NoError(t, err, "connect")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupTestStore returns the store of a migrated test database.
func setupTestStore(t *testing.T) lockbox.FileStore {
	t.Helper()

	db := openTestDatabase(t, "items")
	require.NoError(t, db.Migrate(context.Background()), "migrate")
	return db.GetStore()
}

// Package database provides a unified way to open the storage backend that
// holds lockbox items.
//
// # Supported Backends
//
//   - sqlite: single-file SQL store using modernc.org/sqlite
//   - postgres: pgx connection pool
//   - bolt: embedded bbolt file
//   - redis: go-redis client, sorted-set index for listing
//   - s3: any S3-compatible bucket through minio-go
//   - filesystem: one file per key under a directory
//   - memory: process-local map, lost on restart
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "lockbox.db",
//	    Tables: lockbox.Tables{Items: "lockbox_items"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//	store := db.GetStore()
//
// Every backend returns keys from List in ascending byte order and pages
// with the same opaque cursor format, so callers can switch backends without
// changing how they iterate.
package database

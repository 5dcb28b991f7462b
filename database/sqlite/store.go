package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

type store struct {
	db        *sql.DB
	tableName string
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT value FROM %s WHERE key = ?`, quoteIdentifier(s.tableName))

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
		}
		return "", fmt.Errorf("get: %w", err)
	}

	return value, nil
}

func (s *store) Put(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		quoteIdentifier(s.tableName))

	if _, err := s.db.ExecContext(ctx, query, key, value, now); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	return nil
}

func (s *store) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	after, err := cursor.Decode(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT key FROM %s
		WHERE substr(key, 1, length(?1)) = ?1 AND key > ?2
		ORDER BY key
		LIMIT ?3`, quoteIdentifier(s.tableName))

	// LIKE folds ASCII case in SQLite, so the prefix is matched with substr
	rows, err := s.db.QueryContext(ctx, query, q.Prefix, after, limit+1)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0, limit+1)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return lockbox.ListResult{}, fmt.Errorf("list: scan: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	return cursor.Page(keys, limit), nil
}

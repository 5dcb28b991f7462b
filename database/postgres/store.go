package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

type store struct {
	pool      *pgxpool.Pool
	tableName string
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, pgx.Identifier{s.tableName}.Sanitize())

	var value string
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
		}
		return "", fmt.Errorf("get: %w", err)
	}

	return value, nil
}

func (s *store) Put(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, pgx.Identifier{s.tableName}.Sanitize())

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
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

	query := fmt.Sprintf(`
		SELECT key FROM %s
		WHERE key LIKE $1 || '%%' AND key COLLATE "C" > $2
		ORDER BY key COLLATE "C"
		LIMIT $3
	`, pgx.Identifier{s.tableName}.Sanitize())

	rows, err := s.pool.Query(ctx, query, cursor.EscapeLike(q.Prefix), after, limit+1)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: scan: %w", err)
	}

	return cursor.Page(keys, limit), nil
}

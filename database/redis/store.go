package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

type store struct {
	client    *redis.Client
	namespace string
}

func (s *store) valueKey(key string) string {
	return s.namespace + ":v:" + key
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.valueKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
		}
		return "", fmt.Errorf("get: %w", err)
	}
	return value, nil
}

// Put writes the value and its index entry in one MULTI/EXEC.
func (s *store) Put(ctx context.Context, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.valueKey(key), value, 0)
		pipe.ZAdd(ctx, indexKey(s.namespace), redis.Z{Score: 0, Member: key})
		return nil
	})
	if err != nil {
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

	lower := "[" + q.Prefix
	if after != "" && after >= q.Prefix {
		lower = "(" + after
	}
	upper := "+"
	if q.Prefix != "" {
		// no UTF-8 encoded key contains 0xff
		upper = "[" + q.Prefix + "\xff"
	}
	if q.Prefix == "" && after == "" {
		lower = "-"
	}

	keys, err := s.client.ZRangeByLex(ctx, indexKey(s.namespace), &redis.ZRangeBy{
		Min:   lower,
		Max:   upper,
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	return cursor.Page(keys, limit), nil
}

package bolt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
	bolt "go.etcd.io/bbolt"
)

type store struct {
	db     *bolt.DB
	bucket []byte
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("get: %w", err)
	}

	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt, err := s.items(tx)
		if err != nil {
			return err
		}

		raw := bkt.Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
		}
		// raw is only valid for the life of the transaction
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *store) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := s.items(tx)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (s *store) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	after, err := cursor.Decode(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	prefix := []byte(q.Prefix)
	keys := make([]string, 0, limit+1)

	err = s.db.View(func(tx *bolt.Tx) error {
		bkt, err := s.items(tx)
		if err != nil {
			return err
		}

		c := bkt.Cursor()
		seek := prefix
		if after != "" && after > q.Prefix {
			seek = []byte(after)
		}

		for k, _ := c.Seek(seek); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if after != "" && string(k) <= after {
				continue
			}
			keys = append(keys, string(k))
			if len(keys) > limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	return cursor.Page(keys, limit), nil
}

func (s *store) items(tx *bolt.Tx) (*bolt.Bucket, error) {
	bkt := tx.Bucket(s.bucket)
	if bkt == nil {
		return nil, fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return bkt, nil
}

// Package memory provides an in-process FileStore backed by a sorted map.
// It is used for tests and for single-instance deployments that do not need
// durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

const defaultListLimit = 100

type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ lockbox.FileStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("get: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *Store) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	after, err := cursor.Decode(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		if !strings.HasPrefix(key, q.Prefix) {
			continue
		}
		if after != "" && key <= after {
			continue
		}
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	if len(keys) > limit+1 {
		keys = keys[:limit+1]
	}

	return cursor.Page(keys, limit), nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Package filesystem provides a directory-backed FileStore for lockbox.
// Each key is stored in its own file, named by the SHA-256 of the key, and
// written atomically using a temp file and rename.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/internal/cursor"
)

const (
	entryExt         = ".json"
	defaultListLimit = 100
)

// entry is the on-disk envelope. Hashed file names do not sort like keys,
// so the key is kept next to the value.
type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

var _ lockbox.FileStore = (*Store)(nil)

// NewFileStore creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Get reads the value stored under key. Returns lockbox.ErrNotFound if the
// key has never been written.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e, err := s.readEntry(entryName(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("get %s: %w", key, lockbox.ErrNotFound)
		}
		return "", fmt.Errorf("get: %w", err)
	}

	return e.Value, nil
}

// Put atomically replaces the file for key using a temp file and rename.
func (s *Store) Put(ctx context.Context, key, value string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	data, err := json.Marshal(entry{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("put: encode entry: %w", err)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := t.Write(data); err != nil {
		return fmt.Errorf("could not write temp file: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, entryName(key)); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// List reads every entry in the root directory and returns one page of keys
// sharing q.Prefix in ascending order.
func (s *Store) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return lockbox.ListResult{}, err
	}

	after, err := cursor.Decode(q.Cursor)
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return lockbox.ListResult{}, fmt.Errorf("failed to list files: %w", err)
	}

	keys := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return lockbox.ListResult{}, err
		}

		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, entryExt) {
			continue
		}

		e, err := s.readEntry(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return lockbox.ListResult{}, fmt.Errorf("list: %w", err)
		}

		if !strings.HasPrefix(e.Key, q.Prefix) || (after != "" && e.Key <= after) {
			continue
		}
		keys = append(keys, e.Key)
	}

	sort.Strings(keys)
	if len(keys) > limit+1 {
		keys = keys[:limit+1]
	}

	return cursor.Page(keys, limit), nil
}

func (s *Store) readEntry(name string) (entry, error) {
	data, err := fs.ReadFile(s.root.FS(), name)
	if err != nil {
		return entry{}, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return e, nil
}

func entryName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + entryExt
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}

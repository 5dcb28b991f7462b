package lockbox

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72

	defaultListPageSize = 100
)

type Service struct {
	store        FileStore
	bcryptCost   int
	listPageSize int
	now          func() time.Time
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	BcryptCost   int // bcrypt cost for new password hashes (default: bcrypt.DefaultCost)
	ListPageSize int // page size used while exhausting store listings (default: 100)
}

func NewService(store FileStore, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("new service: store is required")
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("new service: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	pageSize := cfg.ListPageSize
	if pageSize <= 0 {
		pageSize = defaultListPageSize
	}

	return &Service{
		store:        store,
		bcryptCost:   cost,
		listPageSize: pageSize,
		now:          time.Now,
	}, nil
}

// Upload validates req, hashes the password and writes the item under
// "file:<filename>", overwriting any existing item with the same filename.
//
// The method performs exactly one store write. Concurrent uploads to the same
// filename race at the store; the last writer wins.
//
// Error types returned:
//   - ErrInvalidInput: Empty filename or password, invalid filename,
//     password longer than MaxPasswordBytes, or unknown client tag
//   - context.Canceled or context.DeadlineExceeded: Context was cancelled
//   - Wrapped store errors: Issues writing to the store
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if req.Filename == "" {
		return UploadResult{}, fmt.Errorf("upload: %w: filename is required", ErrInvalidInput)
	}

	if req.Password == "" {
		return UploadResult{}, fmt.Errorf("upload: %w: password is required", ErrInvalidInput)
	}

	if !IsValidFilename(req.Filename) {
		return UploadResult{}, fmt.Errorf("upload %q: %w: invalid filename", req.Filename, ErrInvalidInput)
	}

	if len(req.Password) > MaxPasswordBytes {
		return UploadResult{}, fmt.Errorf("upload: %w: password exceeds %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	if req.Client != "" && req.Client != ClientClassified {
		return UploadResult{}, fmt.Errorf("upload: %w: unknown client %q", ErrInvalidInput, req.Client)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: hash password: %w", err)
	}

	item := StoredItem{
		Content:      req.Content,
		PasswordHash: string(hash),
		Client:       req.Client,
		UpdatedAt:    s.now().UTC(),
	}
	if req.Client == ClientClassified {
		item.Fingerprint = req.Fingerprint
	}

	data, err := json.Marshal(item)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: encode item: %w", err)
	}

	if err := s.store.Put(ctx, ItemKey(req.Filename), string(data)); err != nil {
		return UploadResult{}, fmt.Errorf("upload %q: %w", req.Filename, err)
	}

	return UploadResult{
		Filename:  req.Filename,
		Client:    item.Client,
		UpdatedAt: item.UpdatedAt,
	}, nil
}

// Read looks up filename and checks password against the stored item.
// The password is checked after the lookup and is never part of the key.
//
// Error types returned:
//   - ErrInvalidInput: Empty filename or password
//   - ErrNotFound: No item stored under the filename
//   - ErrForbidden: Password does not match
//   - Wrapped store or decode errors
func (s *Service) Read(ctx context.Context, filename, password string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, fmt.Errorf("read: %w", err)
	}

	if filename == "" {
		return Item{}, fmt.Errorf("read: %w: filename is required", ErrInvalidInput)
	}

	if password == "" {
		return Item{}, fmt.Errorf("read: %w: password is required", ErrInvalidInput)
	}

	raw, err := s.store.Get(ctx, ItemKey(filename))
	if err != nil {
		return Item{}, fmt.Errorf("read %q: %w", filename, err)
	}

	var stored StoredItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return Item{}, fmt.Errorf("read %q: decode item: %w", filename, err)
	}

	if err := checkPassword(stored, password); err != nil {
		return Item{}, fmt.Errorf("read %q: %w", filename, err)
	}

	return Item{
		Filename:  filename,
		Content:   stored.Content,
		Client:    stored.Client,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

// Search returns every stored filename with the namespace prefix stripped,
// in the store's listing order. It pages through the store until no cursor
// remains. Duplicate keys reported by the store are dropped.
func (s *Service) Search(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	names := make([]string, 0)
	seen := make(map[string]struct{})
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		result, err := s.store.List(ctx, ListQuery{
			Prefix: KeyPrefix,
			Limit:  s.listPageSize,
			Cursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		for _, key := range result.Keys {
			name, ok := FilenameFromKey(key)
			if !ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return names, nil
}

func checkPassword(stored StoredItem, password string) error {
	if stored.PasswordHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrForbidden
		}
		if err != nil {
			return fmt.Errorf("compare password: %w", err)
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(stored.Password), []byte(password)) != 1 {
		return ErrForbidden
	}
	return nil
}

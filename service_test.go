package lockbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type SpyFileStore struct {
	mock.Mock
}

func (s *SpyFileStore) Get(ctx context.Context, key string) (string, error) {
	args := s.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (s *SpyFileStore) Put(ctx context.Context, key, value string) error {
	args := s.Called(ctx, key, value)
	return args.Error(0)
}

func (s *SpyFileStore) List(ctx context.Context, q lockbox.ListQuery) (lockbox.ListResult, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(lockbox.ListResult), args.Error(1)
}

func NewSpyService(t *testing.T) (*lockbox.Service, *SpyFileStore) {
	t.Helper()
	spy := new(SpyFileStore)
	s, err := lockbox.NewService(spy, lockbox.ServiceConfig{BcryptCost: bcrypt.MinCost, ListPageSize: 2})
	require.NoError(t, err, "new service")
	return s, spy
}

func NewMemoryService(t *testing.T) (*lockbox.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	s, err := lockbox.NewService(store, lockbox.ServiceConfig{BcryptCost: bcrypt.MinCost, ListPageSize: 3})
	require.NoError(t, err, "new service")
	return s, store
}

func TestNewService(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		_, err := lockbox.NewService(nil, lockbox.ServiceConfig{})
		assert.Error(t, err)
	})

	t.Run("cost out of range", func(t *testing.T) {
		_, err := lockbox.NewService(memory.NewStore(), lockbox.ServiceConfig{BcryptCost: bcrypt.MaxCost + 1})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := lockbox.NewService(memory.NewStore(), lockbox.ServiceConfig{})
		assert.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestService_Upload(t *testing.T) {
	t.Run("writes one hashed item under the file namespace", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		var written string
		spy.On("Put", ctx, "file:a.txt", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { written = args.String(2) }).
			Return(nil).Once()

		result, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a.txt", Content: "hello", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "a.txt", result.Filename)
		assert.Empty(t, result.Client)
		assert.False(t, result.UpdatedAt.IsZero())

		var stored lockbox.StoredItem
		require.NoError(t, json.Unmarshal([]byte(written), &stored))
		assert.Equal(t, "hello", stored.Content)
		assert.Empty(t, stored.Password, "plaintext password must not be stored")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw")))
		assert.NotContains(t, written, `"pw"`)

		spy.AssertExpectations(t)
		spy.AssertNumberOfCalls(t, "Put", 1)
	})

	t.Run("classified upload records client and fingerprint", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		var written string
		spy.On("Put", ctx, "file:list.m3u", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { written = args.String(2) }).
			Return(nil)

		result, err := service.Upload(ctx, lockbox.UploadRequest{
			Filename:    "list.m3u",
			Content:     "#EXTM3U",
			Password:    "pw",
			Client:      lockbox.ClientClassified,
			Fingerprint: "abc123",
		})
		require.NoError(t, err)
		assert.Equal(t, lockbox.ClientClassified, result.Client)

		var stored lockbox.StoredItem
		require.NoError(t, json.Unmarshal([]byte(written), &stored))
		assert.Equal(t, lockbox.ClientClassified, stored.Client)
		assert.Equal(t, "abc123", stored.Fingerprint)
	})

	t.Run("fingerprint ignored for normal uploads", func(t *testing.T) {
		service, store := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Content: "x", Password: "pw", Fingerprint: "abc"})
		require.NoError(t, err)

		raw, err := store.Get(ctx, "file:a")
		require.NoError(t, err)
		assert.NotContains(t, raw, "abc")
	})

	invalid := []struct {
		name string
		req  lockbox.UploadRequest
	}{
		{name: "missing filename", req: lockbox.UploadRequest{Content: "x", Password: "pw"}},
		{name: "missing password", req: lockbox.UploadRequest{Filename: "a.txt", Content: "x"}},
		{name: "path separator", req: lockbox.UploadRequest{Filename: "a/b", Content: "x", Password: "pw"}},
		{name: "dot dot", req: lockbox.UploadRequest{Filename: "..", Content: "x", Password: "pw"}},
		{name: "password too long", req: lockbox.UploadRequest{Filename: "a", Password: strings.Repeat("p", lockbox.MaxPasswordBytes+1)}},
		{name: "unknown client", req: lockbox.UploadRequest{Filename: "a", Password: "pw", Client: "robot"}},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			service, spy := NewSpyService(t)

			_, err := service.Upload(context.Background(), tc.req)
			assert.ErrorIs(t, err, lockbox.ErrInvalidInput)
			spy.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("empty content is allowed", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "empty", Password: "pw"})
		require.NoError(t, err)

		item, err := service.Read(ctx, "empty", "pw")
		require.NoError(t, err)
		assert.Empty(t, item.Content)
	})

	t.Run("store error", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		spy.On("Put", ctx, "file:a", mock.Anything).Return(io.ErrClosedPipe)

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Password: "pw"})
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})

	t.Run("context cancelled", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Password: "pw"})
		assert.ErrorIs(t, err, context.Canceled)
		spy.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Read(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "notes.txt", Content: "hello world", Password: "s3cret"})
		require.NoError(t, err)

		item, err := service.Read(ctx, "notes.txt", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", item.Filename)
		assert.Equal(t, "hello world", item.Content)
	})

	t.Run("wrong password", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Content: "x", Password: "right"})
		require.NoError(t, err)

		_, err = service.Read(ctx, "a", "wrong")
		assert.ErrorIs(t, err, lockbox.ErrForbidden)
	})

	t.Run("missing item", func(t *testing.T) {
		service, _ := NewMemoryService(t)

		_, err := service.Read(context.Background(), "nope", "pw")
		assert.ErrorIs(t, err, lockbox.ErrNotFound)
	})

	t.Run("overwrite replaces content and password", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Content: "first", Password: "one"})
		require.NoError(t, err)
		_, err = service.Upload(ctx, lockbox.UploadRequest{Filename: "a", Content: "second", Password: "two"})
		require.NoError(t, err)

		_, err = service.Read(ctx, "a", "one")
		assert.ErrorIs(t, err, lockbox.ErrForbidden)

		item, err := service.Read(ctx, "a", "two")
		require.NoError(t, err)
		assert.Equal(t, "second", item.Content)
	})

	t.Run("legacy plaintext record", func(t *testing.T) {
		service, store := NewMemoryService(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "file:old.txt", `{"content":"legacy","password":"plain"}`))

		item, err := service.Read(ctx, "old.txt", "plain")
		require.NoError(t, err)
		assert.Equal(t, "legacy", item.Content)

		_, err = service.Read(ctx, "old.txt", "Plain")
		assert.ErrorIs(t, err, lockbox.ErrForbidden)
	})

	t.Run("missing fields do not touch the store", func(t *testing.T) {
		service, spy := NewSpyService(t)

		_, err := service.Read(context.Background(), "", "pw")
		assert.ErrorIs(t, err, lockbox.ErrInvalidInput)

		_, err = service.Read(context.Background(), "a", "")
		assert.ErrorIs(t, err, lockbox.ErrInvalidInput)

		spy.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("corrupt record", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		spy.On("Get", ctx, "file:a").Return("{not json", nil)

		_, err := service.Read(ctx, "a", "pw")
		require.Error(t, err)
		assert.False(t, errors.Is(err, lockbox.ErrForbidden))
		assert.False(t, errors.Is(err, lockbox.ErrNotFound))
	})
}

func TestService_Search(t *testing.T) {
	t.Run("empty store returns empty slice", func(t *testing.T) {
		service, _ := NewMemoryService(t)

		names, err := service.Search(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})

	t.Run("returns every filename across pages", func(t *testing.T) {
		service, store := NewMemoryService(t)
		ctx := context.Background()

		want := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			name := fmt.Sprintf("f%02d.txt", i)
			want = append(want, name)
			_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: name, Content: "x", Password: "pw"})
			require.NoError(t, err)
		}
		require.NoError(t, store.Put(ctx, "session:zzz", "ignored"))

		names, err := service.Search(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, names)
	})

	t.Run("uploads of the same name count once", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "same", Content: "x", Password: "pw"})
			require.NoError(t, err)
		}

		names, err := service.Search(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"same"}, names)
	})

	t.Run("drops duplicates reported by the store", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		spy.On("List", ctx, lockbox.ListQuery{Prefix: "file:", Limit: 2}).
			Return(lockbox.ListResult{Keys: []string{"file:a", "file:b"}, NextCursor: "c1"}, nil).Once()
		spy.On("List", ctx, lockbox.ListQuery{Prefix: "file:", Limit: 2, Cursor: "c1"}).
			Return(lockbox.ListResult{Keys: []string{"file:b", "file:c"}}, nil).Once()

		names, err := service.Search(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, names)
		spy.AssertExpectations(t)
	})

	t.Run("filename that looks like the prefix is stripped once", func(t *testing.T) {
		service, _ := NewMemoryService(t)
		ctx := context.Background()

		_, err := service.Upload(ctx, lockbox.UploadRequest{Filename: "file:x", Content: "x", Password: "pw"})
		require.NoError(t, err)

		names, err := service.Search(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"file:x"}, names)
	})

	t.Run("list error", func(t *testing.T) {
		service, spy := NewSpyService(t)
		ctx := context.Background()

		spy.On("List", ctx, mock.Anything).Return(lockbox.ListResult{}, io.ErrUnexpectedEOF)

		_, err := service.Search(ctx)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

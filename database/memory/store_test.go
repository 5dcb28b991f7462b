package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetPut(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.Get(ctx, "file:a.txt")
	assert.ErrorIs(t, err, lockbox.ErrNotFound)

	require.NoError(t, store.Put(ctx, "file:a.txt", "one"))
	got, err := store.Get(ctx, "file:a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	require.NoError(t, store.Put(ctx, "file:a.txt", "two"))
	got, err = store.Get(ctx, "file:a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
	assert.Equal(t, 1, store.Len())
}

func TestStore_List_Paginates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for i := 0; i < 7; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("file:%02d", i), "v"))
	}
	require.NoError(t, store.Put(ctx, "other:x", "v"))

	var all []string
	cursor := ""
	pages := 0
	for {
		result, err := store.List(ctx, lockbox.ListQuery{Prefix: "file:", Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		all = append(all, result.Keys...)
		pages++
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"file:00", "file:01", "file:02", "file:03", "file:04", "file:05", "file:06"}, all)
}

func TestStore_List_InvalidCursor(t *testing.T) {
	store := memory.NewStore()

	_, err := store.List(context.Background(), lockbox.ListQuery{Cursor: "%%%"})
	assert.ErrorIs(t, err, lockbox.ErrInvalidInput)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.NewStore()
	assert.ErrorIs(t, store.Put(ctx, "file:a", "v"), context.Canceled)
	_, err := store.Get(ctx, "file:a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentPut(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Put(ctx, fmt.Sprintf("file:%d", i%10), "v")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
}

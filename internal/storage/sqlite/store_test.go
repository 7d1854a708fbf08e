package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_UpsertUser(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, "u1", "Alice"))
	first, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Alice", first.DisplayName)

	require.NoError(t, store.UpsertUser(ctx, "u1", "Alice B."))
	second, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", second.DisplayName)
	assert.Equal(t, first.FirstSeen, second.FirstSeen)
	assert.False(t, second.LastSeen.Before(first.LastSeen))

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_GetUserMissing(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	user, err := store.GetUser(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestStore_UpsertUserConcurrent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "u1"
			if i%2 == 0 {
				id = "u2"
			}
			assert.NoError(t, store.UpsertUser(ctx, id, "name"))
		}()
	}
	wg.Wait()

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertUser(context.Background(), "u1", "Alice"))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.DisplayName)
}

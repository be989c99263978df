package cache_test

import (
	"context"
	"os"
	"testing"

	"growmart/internal/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *cache.Store {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis integration test")
	}
	rdb := cache.New(addr)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return cache.NewStore(rdb)
}

func TestStore_IdempotencyClaim(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	id, err := store.Claim(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = store.Claim(ctx, key)
	assert.ErrorIs(t, err, cache.ErrInFlight)

	require.NoError(t, store.Complete(ctx, key, 42))
	id, err = store.Claim(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	other := uuid.NewString()
	_, err = store.Claim(ctx, other)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, other))
	id, err = store.Claim(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, id, "released key can be claimed again")
}

func TestStore_StockCache(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	day := "2099-01-" + uuid.NewString()[:2]

	var got []map[string]any
	hit, err := store.GetStock(ctx, day, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.PutStock(ctx, day, []map[string]any{{"product_id": 1}}))
	hit, err = store.GetStock(ctx, day, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, got, 1)

	require.NoError(t, store.InvalidateStock(ctx))
	hit, err = store.GetStock(ctx, day, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStore_SeenEvent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	id := uuid.NewString()

	seen, err := store.SeenEvent(ctx, "stock-worker", id)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = store.SeenEvent(ctx, "stock-worker", id)
	require.NoError(t, err)
	assert.True(t, seen)
}

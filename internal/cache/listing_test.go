package cache

import (
	"context"
	"testing"
	"time"

	"yatube/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestMemoryListingStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryListingStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Put(ctx, "k", []byte("v1"), 20*time.Second)

	v, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	now = now.Add(19 * time.Second)
	_, ok = store.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok, "entry must expire once ttl has elapsed")
}

func TestMemoryListingStore_ClearAndZeroTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryListingStore()

	store.Put(ctx, "a", []byte("1"), time.Minute)
	store.Put(ctx, "b", []byte("2"), time.Minute)
	store.Put(ctx, "c", []byte("3"), 0)

	_, ok := store.Get(ctx, "c")
	assert.False(t, ok, "zero ttl is not cached")

	store.Clear(ctx)
	_, okA := store.Get(ctx, "a")
	_, okB := store.Get(ctx, "b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestMemoryListingStore_CopiesValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryListingStore()
	buf := []byte("page")
	store.Put(ctx, "k", buf, time.Minute)
	buf[0] = 'X'

	v, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "page", string(v))
}

func TestRedisListingStore_PutGetExpire(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	store := NewRedisListingStore(rdb)

	store.Put(ctx, IndexKey("1"), []byte(`{"page":1}`), 20*time.Second)
	assert.True(t, mr.Exists(ListingKeyPrefix+IndexKey("1")))

	v, ok := store.Get(ctx, IndexKey("1"))
	require.True(t, ok)
	assert.JSONEq(t, `{"page":1}`, string(v))

	mr.FastForward(21 * time.Second)
	_, ok = store.Get(ctx, IndexKey("1"))
	assert.False(t, ok)
}

func TestRedisListingStore_ClearOnlyTouchesListingKeys(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	store := NewRedisListingStore(rdb)

	for _, p := range []string{"1", "2", "abc"} {
		store.Put(ctx, IndexKey(p), []byte(p), time.Minute)
	}
	require.NoError(t, mr.Set("blacklist:xyz", "1"))

	store.Clear(ctx)

	for _, p := range []string{"1", "2", "abc"} {
		_, ok := store.Get(ctx, IndexKey(p))
		assert.False(t, ok)
	}
	assert.True(t, mr.Exists("blacklist:xyz"))
}

func TestRedisListingStore_BackendFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newMiniredis(t)
	store := NewRedisListingStore(rdb)
	store.Put(ctx, "k", []byte("v"), time.Minute)

	mr.Close()

	assert.NotPanics(t, func() {
		_, ok := store.Get(ctx, "k")
		assert.False(t, ok)
		store.Put(ctx, "k", []byte("v"), time.Minute)
		store.Clear(ctx)
	})
}

func TestNewListingStore_Backends(t *testing.T) {
	_, rdb := newMiniredis(t)

	redisStore := NewListingStore(config.ListingCacheRedis, rdb)
	assert.IsType(t, &RedisListingStore{}, redisStore.(instrumented).ListingStore)

	fallback := NewListingStore(config.ListingCacheRedis, nil)
	assert.IsType(t, &MemoryListingStore{}, fallback.(instrumented).ListingStore)

	memory := NewListingStore(config.ListingCacheMemory, nil)
	assert.IsType(t, &MemoryListingStore{}, memory.(instrumented).ListingStore)

	noop := NewListingStore(config.ListingCacheNone, rdb)
	noop.Put(context.Background(), "k", []byte("v"), time.Minute)
	_, ok := noop.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestIndexKey_KeepsRawPage(t *testing.T) {
	assert.Equal(t, "index:page=", IndexKey(""))
	assert.Equal(t, "index:page=2", IndexKey("2"))
	assert.NotEqual(t, IndexKey("1"), IndexKey("abc"))
}

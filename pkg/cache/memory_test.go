package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

func TestMemoryCache_SetGetStruct(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "q:IBM", quote{Ticker: "IBM", Price: 101.5}, time.Minute))

	var got quote
	require.NoError(t, mc.Get(ctx, "q:IBM", &got))
	assert.Equal(t, quote{Ticker: "IBM", Price: 101.5}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "hello", time.Minute))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "hello", s)
}

func TestMemoryCache_MissAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	var got quote
	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "short", quote{}, 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)
	assert.ErrorIs(t, mc.Get(ctx, "short", &got), ErrCacheMiss)

	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for _, k := range []string{"predict:IBM:daily:60", "predict:IBM:5min:30", "predict:AAPL:daily:60"} {
		require.NoError(t, mc.Set(ctx, k, 1, time.Minute))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, "predict:IBM:*"))

	ok, _ := mc.Exists(ctx, "predict:IBM:daily:60", "predict:IBM:5min:30")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "predict:AAPL:daily:60")
	assert.True(t, ok)
}

func TestMemoryCache_TryLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "lock:IBM", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "lock:IBM", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, mc.Unlock(ctx, "lock:IBM", "b"), ErrLockNotHeld)
	require.NoError(t, mc.Unlock(ctx, "lock:IBM", "a"))
	ok, _ = mc.TryLock(ctx, "lock:IBM", "b", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCache_LocksAreNotEvicted(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(1))
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "trainlock:IBM", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mc.Set(ctx, "x", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "y", 2, time.Minute))

	ok, _ = mc.TryLock(ctx, "trainlock:IBM", "b", time.Minute)
	assert.False(t, ok)
	assert.NoError(t, mc.Unlock(ctx, "trainlock:IBM", "a"))
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestLayeredCache_ReadsThroughToL2(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, 10, time.Minute)
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "q", quote{Ticker: "MSFT", Price: 3}, time.Minute))

	var got quote
	require.NoError(t, lc.Get(ctx, "q", &got))
	assert.Equal(t, "MSFT", got.Ticker)

	// served from L1 after L2 loses the key
	require.NoError(t, l2.Delete(ctx, "q"))
	got = quote{}
	require.NoError(t, lc.Get(ctx, "q", &got))
	assert.Equal(t, 3.0, got.Price)

	require.NoError(t, lc.Delete(ctx, "q"))
	assert.ErrorIs(t, lc.Get(ctx, "q", &got), ErrCacheMiss)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "predict:IBM:daily", Key("predict", "IBM", "daily"))
	assert.Equal(t, "solo", Key("solo"))
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(10, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "value", time.Minute))

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "value", got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(10, nil)

	var got string
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCache(10, clock)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "value", time.Hour))

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))

	now = now.Add(time.Hour + time.Second)
	err := c.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheCapacityEvictsOldest(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCache(2, clock)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	var got int
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "b", &got))
	require.NoError(t, c.Get(ctx, "c", &got))
}

func TestMemoryCacheIncrementWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewMemoryCache(10, clock)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Increment(ctx, "otp:+79000000000", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Window rolls over, counter restarts.
	now = now.Add(2 * time.Minute)
	n, err := c.Increment(ctx, "otp:+79000000000", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

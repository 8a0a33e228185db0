package cache

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	RunID string         `json:"run_id"`
	Hits  int            `json:"hits"`
	Count map[string]int `json:"count"`
}

func TestMemoryCache_RoundTripsStructs(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := summary{RunID: "r1", Hits: 3, Count: map[string]int{"C": 2}}
	require.NoError(t, mc.Set(ctx, "run:r1", in, time.Minute))

	var out summary
	require.NoError(t, mc.Get(ctx, "run:r1", &out))
	assert.Equal(t, in, out)

	var s string
	require.NoError(t, mc.Set(ctx, "plain", "value", 0))
	require.NoError(t, mc.Get(ctx, "plain", &s))
	assert.Equal(t, "value", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &out), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	got, err := mc.MGet(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "c": "3"}, got)
}

func TestMemoryCache_ExpireAndLockLapse(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	ok, err := mc.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Set(ctx, "k", "v", 0))
	ok, err = mc.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	held, err := mc.TryLock(ctx, "lock:run", 10*time.Second)
	require.NoError(t, err)
	require.True(t, held)

	now = now.Add(30 * time.Second)
	held, err = mc.TryLock(ctx, "lock:run", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, held, "a lapsed lock is free again")
	ok, err = mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, err = mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TryLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "lock:run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "lock:run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "lock:run"))
	ok, err = mc.TryLock(ctx, "lock:run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "screen:2024-01-02", "a", 0))
	require.NoError(t, mc.Set(ctx, "screen:2024-01-03", "b", 0))
	require.NoError(t, mc.Set(ctx, "lock:run", "locked", 0))

	require.NoError(t, mc.DeleteByPattern(ctx, ScreenPattern()))
	got, err := mc.MGet(ctx, "screen:2024-01-02", "screen:2024-01-03", "lock:run")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lock:run": "locked"}, got)

	assert.Error(t, mc.DeleteByPattern(ctx, "["))
}

func TestMemoryCache_Increment(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "runs")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLayeredCache_FillsLocalFromRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, 100, time.Minute)
	defer lc.Close()

	in := summary{RunID: "r2", Hits: 1}
	require.NoError(t, remote.Set(ctx, "run:latest", in, time.Hour))

	var out summary
	require.NoError(t, lc.Get(ctx, "run:latest", &out))
	assert.Equal(t, in, out)

	// served from L1 after the remote entry disappears
	require.NoError(t, remote.Delete(ctx, "run:latest"))
	out = summary{}
	require.NoError(t, lc.Get(ctx, "run:latest", &out))
	assert.Equal(t, "r2", out.RunID)

	require.NoError(t, lc.Delete(ctx, "run:latest"))
	assert.ErrorIs(t, lc.Get(ctx, "run:latest", &out), ErrCacheMiss)
}

func TestLayeredCache_LocksGoToRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	a := NewLayeredCache(remote, 0, 0)
	b := NewLayeredCache(remote, 0, 0)
	defer a.memCache.Close()
	defer b.memCache.Close()
	defer remote.Close()

	ok, err := a.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "run:abc", RunKey("abc"))
	assert.Equal(t, "run:latest", LatestRunKey())
	assert.Equal(t, "screen:2024-01-02", ScreenKey(day))
	assert.Equal(t, "lock:run", LockKey("run"))

	ok, err := path.Match(ScreenPattern(), ScreenKey(day))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = path.Match(ScreenPattern(), RunKey("abc"))
	assert.False(t, ok)
}

package cache

import (
	"context"
	"time"
)

// Remote is the shared second level of a LayeredCache.
type Remote interface {
	Service
	Close() error
}

// LayeredCache implements two-level cache (L1: Memory, L2: Redis). Locks,
// counters and existence checks always go to L2 so every instance agrees.
type LayeredCache struct {
	memCache *MemoryCache
	remote   Remote
	localTTL time.Duration
}

// NewLayeredCache puts an L1 of l1Size entries in front of remote. Entries
// live in L1 for at most localTTL; non-positive arguments take 1000 entries
// and one minute.
func NewLayeredCache(remote Remote, l1Size int, localTTL time.Duration) *LayeredCache {
	if localTTL <= 0 {
		localTTL = time.Minute
	}
	return &LayeredCache{
		memCache: NewMemoryCache(WithMemoryMaxSize(l1Size)),
		remote:   remote,
		localTTL: localTTL,
	}
}

func (lc *LayeredCache) localExpiry(expiration time.Duration) time.Duration {
	if expiration <= 0 || expiration > lc.localTTL {
		return lc.localTTL
	}
	return expiration
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, lc.localExpiry(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.memCache.Get(ctx, key, dest); err == nil {
		return nil
	}

	var raw []byte
	if err := lc.remote.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, raw, lc.localTTL)
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.memCache.DeleteByPattern(ctx, pattern)
	return lc.remote.DeleteByPattern(ctx, pattern)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.remote.Exists(ctx, keys...)
}

func (lc *LayeredCache) Increment(ctx context.Context, key string) (int64, error) {
	return lc.remote.Increment(ctx, key)
}

func (lc *LayeredCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return lc.remote.Expire(ctx, key, expiration)
}

func (lc *LayeredCache) MSet(ctx context.Context, values map[string]interface{}, expiration time.Duration) error {
	return lc.remote.MSet(ctx, values, expiration)
}

func (lc *LayeredCache) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	return lc.remote.MGet(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.remote.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.remote.Unlock(ctx, key)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.remote.Close()
}

package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultMemorySize = 1000
	// noExpiry is the lifetime of an entry stored with a zero expiration.
	noExpiry = 7 * 24 * time.Hour
)

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize bounds the number of entries; the least recently used
// entry is evicted first.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(mc *MemoryCache) { mc.size = n }
}

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// MemoryCache is a process-local Service. Values stay encoded so Get
// decodes into any destination the way RedisCache does. Expired entries are
// dropped when touched or when they fall out of the LRU.
type MemoryCache struct {
	mu      sync.Mutex // serializes read-modify-write operations
	entries *lru.Cache[string, memoryEntry]
	size    int
	now     func() time.Time
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	mc := &MemoryCache{size: defaultMemorySize, now: time.Now}
	for _, opt := range opts {
		opt(mc)
	}
	if mc.size <= 0 {
		mc.size = defaultMemorySize
	}
	mc.entries, _ = lru.New[string, memoryEntry](mc.size)
	return mc
}

// live returns the entry of key unless it is missing or expired. promote
// marks it as recently used.
func (mc *MemoryCache) live(key string, promote bool) (memoryEntry, bool) {
	get := mc.entries.Peek
	if promote {
		get = mc.entries.Get
	}
	e, ok := get(key)
	if !ok {
		return memoryEntry{}, false
	}
	if !mc.now().Before(e.expireAt) {
		mc.entries.Remove(key)
		return memoryEntry{}, false
	}
	return e, true
}

func (mc *MemoryCache) put(key string, value []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = noExpiry
	}
	mc.entries.Add(key, memoryEntry{value: value, expireAt: mc.now().Add(expiration)})
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	mc.put(key, data, expiration)
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := mc.live(key, true)
	if !ok {
		return ErrCacheMiss
	}
	return decode(e.value, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		mc.entries.Remove(k)
	}
	return nil
}

// DeleteByPattern drops the keys matching a glob such as "screen:*", the
// same syntax Redis SCAN MATCH accepts.
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return err
	}
	for _, k := range mc.entries.Keys() {
		if ok, _ := path.Match(pattern, k); ok {
			mc.entries.Remove(k)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, k := range keys {
		if _, ok := mc.live(k, false); ok {
			return true, nil
		}
	}
	return false, nil
}

// Increment keeps the counter's expiry, like INCR does.
func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.live(key, true)
	if !ok {
		mc.put(key, []byte("1"), 0)
		return 1, nil
	}
	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	mc.entries.Add(key, e)
	return n, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.live(key, false)
	if !ok {
		return false, nil
	}
	e.expireAt = mc.now().Add(expiration)
	mc.entries.Add(key, e)
	return true, nil
}

func (mc *MemoryCache) MSet(ctx context.Context, values map[string]interface{}, expiration time.Duration) error {
	for k, v := range values {
		if err := mc.Set(ctx, k, v, expiration); err != nil {
			return err
		}
	}
	return nil
}

func (mc *MemoryCache) MGet(_ context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if e, ok := mc.live(k, false); ok {
			out[k] = string(e.value)
		}
	}
	return out, nil
}

// TryLock takes key for ttl unless a live entry holds it. A lock may be
// evicted under size pressure, so single-instance deployments should size
// the cache well above the number of cached screens.
func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, held := mc.live(key, false); held {
		return false, nil
	}
	mc.put(key, []byte("locked"), ttl)
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Close drops every entry.
func (mc *MemoryCache) Close() error {
	mc.entries.Purge()
	return nil
}

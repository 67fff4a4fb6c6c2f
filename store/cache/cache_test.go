package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxItems int, ttl time.Duration) *Cache {
	return New(Config{
		DefaultTTL:      ttl,
		CleanupInterval: 10 * time.Millisecond,
		MaxItems:        maxItems,
	})
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(10, 20*time.Millisecond)
	defer c.Close()

	c.Set("a", "x")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire after TTL")
}

func TestCacheSetWithTTLOverridesDefault(t *testing.T) {
	c := newTestCache(10, 10*time.Millisecond)
	defer c.Close()

	c.SetWithTTL("long", "v", time.Minute)
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCacheLRUEviction(t *testing.T) {
	c := newTestCache(3, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %s should survive eviction", key)
	}
	assert.Equal(t, 3, c.Len())
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	c.Delete("missing")
}

func TestCacheOnEviction(t *testing.T) {
	var mu sync.Mutex
	evicted := make(map[string]any)

	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour,
		MaxItems:        1,
		OnEviction: func(key string, value any) {
			mu.Lock()
			evicted[key] = value
			mu.Unlock()
		},
	})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, evicted["a"])
}

func TestCacheUpdateExistingKey(t *testing.T) {
	c := newTestCache(10, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("a", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := newTestCache(100, time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("key-%d", j%50)
				c.Set(key, n)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}

// Package cache provides an in-memory TTL cache with LRU eviction,
// used by the store for read-heavy lookups.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config controls cache behavior.
type Config struct {
	// DefaultTTL is applied by Set; SetWithTTL overrides per entry.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; the least recently used entry is
	// evicted when the bound is exceeded. Zero means unbounded.
	MaxItems int
	// OnEviction, if set, is called for entries removed by eviction or sweep.
	// It is invoked outside the cache lock.
	OnEviction func(key string, value any)
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is a TTL cache with LRU eviction. Safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	config Config
	items  map[string]*list.Element
	order  *list.List // front = most recently used

	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine.
// Call Close to stop the goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	c := &Cache{
		config: config,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.mu.Unlock()
		c.notifyEviction(ent)
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return ent.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	var evicted *entry

	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}
	ent := &entry{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	c.items[key] = c.order.PushFront(ent)
	if c.config.MaxItems > 0 && c.order.Len() > c.config.MaxItems {
		if oldest := c.order.Back(); oldest != nil {
			evicted = oldest.Value.(*entry)
			c.removeElement(oldest)
		}
	}
	c.mu.Unlock()

	c.notifyEviction(evicted)
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	c.mu.Unlock()
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close stops the cleanup goroutine. The cache remains usable but expired
// entries are only removed lazily on Get.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
}

// removeElement must be called with the lock held.
func (c *Cache) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.items, ent.key)
}

func (c *Cache) notifyEviction(ent *entry) {
	if ent != nil && c.config.OnEviction != nil {
		c.config.OnEviction(ent.key, ent.value)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	var expired []*entry

	c.mu.Lock()
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		ent := elem.Value.(*entry)
		if now.After(ent.expiresAt) {
			c.removeElement(elem)
			expired = append(expired, ent)
		}
		elem = prev
	}
	c.mu.Unlock()

	for _, ent := range expired {
		c.notifyEviction(ent)
	}
}

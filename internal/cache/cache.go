package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps keys to values with a per-entry time-to-live. Expired entries
// are treated as absent on lookup and removed lazily; an optional sweeper
// reclaims them in the background.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// New creates an empty cache without a background sweeper.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]entry[V]),
	}
}

// NewSweeping creates a cache that sweeps expired entries every interval.
// Call Stop when the cache is no longer needed.
func NewSweeping[K comparable, V any](interval time.Duration) *Cache[K, V] {
	c := New[K, V]()
	c.sweepStop = make(chan struct{})
	go c.sweep(interval)
	return c
}

// Set stores value under key with expiry now+ttl, overwriting any existing
// entry. A non-positive ttl stores an already-expired entry.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the value for key if present and unexpired. An expired entry
// is removed and reported as absent; Get never returns a stale value.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: the entry may have been replaced.
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, including ones that have
// expired but not yet been swept.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the background sweeper. Safe to call multiple times and
// a no-op for caches created with New.
func (c *Cache[K, V]) Stop() {
	if c.sweepStop == nil {
		return
	}
	c.sweepOnce.Do(func() {
		close(c.sweepStop)
	})
}

func (c *Cache[K, V]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.sweepStop:
			return
		}
	}
}

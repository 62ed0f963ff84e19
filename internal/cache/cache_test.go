package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestOverwrite(t *testing.T) {
	c := New[string, string]()
	c.Set("k", "old", time.Minute)
	c.Set("k", "new", time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestExpiry(t *testing.T) {
	c := New[string, int]()
	c.Set("short", 1, 20*time.Millisecond)
	c.Set("long", 2, time.Minute)

	v, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("short")
	assert.False(t, ok, "expired entry must be absent")

	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestExpiredEntryRemovedOnGet(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNonPositiveTTL(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1, 0)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1, time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestSweeper(t *testing.T) {
	c := NewSweeping[string, int](20 * time.Millisecond)
	defer c.Stop()

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 10*time.Millisecond)
	}
	require.Equal(t, 10, c.Len())

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 10*time.Millisecond, "sweeper should reclaim expired entries")
}

func TestStopIdempotent(t *testing.T) {
	c := NewSweeping[string, int](time.Millisecond)
	c.Stop()
	c.Stop()

	// Caches without a sweeper tolerate Stop too.
	New[string, int]().Stop()
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := g*1000 + i
				c.Set(key, i, time.Minute)
				v, ok := c.Get(key)
				assert.True(t, ok)
				assert.Equal(t, i, v)
			}
		}(g)
	}
	wg.Wait()
}

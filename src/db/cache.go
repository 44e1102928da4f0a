package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// DashboardCache holds computed dashboard results per owner. Keys are tracked per owner
// so that a mutation can drop every cached view of that owner's data at once. Each
// owner also carries a generation that every invalidation bumps; a result computed
// under an older generation is never stored.
type DashboardCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu   sync.Mutex
	keys  map[string]map[string]struct{}
	gens  map[string]uint64
	epoch uint64
}

// NewDashboardCache returns a cache whose entries expire after ttl. A zero ttl
// disables caching; Get always misses and Set is a no-op.
func NewDashboardCache(ttl time.Duration) (*DashboardCache, error) {
	c := &DashboardCache{
		ttl:  ttl,
		keys: make(map[string]map[string]struct{}),
		gens: make(map[string]uint64),
	}
	if ttl <= 0 {
		return c, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("initialize dashboard cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

func (c *DashboardCache) Enabled() bool {
	return c != nil && c.cache != nil
}

func cacheKey(ownerID, view string) string {
	return ownerID + ":" + view
}

func (c *DashboardCache) Get(ownerID, view string) (interface{}, bool) {
	if !c.Enabled() {
		return nil, false
	}
	return c.cache.Get(cacheKey(ownerID, view))
}

// Generation returns the owner's current generation. Read it before computing a
// value and hand it to SetIfCurrent.
func (c *DashboardCache) Generation(ownerID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(ownerID)
}

// generation requires c.mu. Clear bumps epoch for every owner at once.
func (c *DashboardCache) generation(ownerID string) uint64 {
	return c.epoch + c.gens[ownerID]
}

// Set stores value for the owner's view. The write becomes visible once ristretto's
// buffers are drained.
func (c *DashboardCache) Set(ownerID, view string, value interface{}) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(ownerID, view, value)
}

// SetIfCurrent stores value only if no invalidation of ownerID happened since gen was
// read. It reports whether the value was stored.
func (c *DashboardCache) SetIfCurrent(ownerID, view string, value interface{}, gen uint64) bool {
	if !c.Enabled() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(ownerID) != gen {
		return false
	}
	c.store(ownerID, view, value)
	return true
}

// store requires c.mu.
func (c *DashboardCache) store(ownerID, view string, value interface{}) {
	key := cacheKey(ownerID, view)
	if c.keys[ownerID] == nil {
		c.keys[ownerID] = make(map[string]struct{})
	}
	c.keys[ownerID][key] = struct{}{}
	c.cache.SetWithTTL(key, value, 1, c.ttl)
}

// Invalidate drops every cached view of ownerID and bumps its generation.
func (c *DashboardCache) Invalidate(ownerID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[ownerID]++
	if c.cache == nil {
		return
	}
	for key := range c.keys[ownerID] {
		c.cache.Del(key)
	}
	delete(c.keys, ownerID)
}

// Clear drops all cached views and bumps every owner's generation.
func (c *DashboardCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	if c.cache == nil {
		return
	}
	c.cache.Clear()
	c.keys = make(map[string]map[string]struct{})
}

// Wait blocks until buffered writes have been applied.
func (c *DashboardCache) Wait() {
	if c.Enabled() {
		c.cache.Wait()
	}
}

func (c *DashboardCache) Close() {
	if c.Enabled() {
		c.cache.Close()
	}
}

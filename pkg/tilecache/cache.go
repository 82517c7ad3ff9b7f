// Package tilecache provides the bounded LRU store for rendered
// spectrogram tiles. One cache is shared by every resolution level; keys
// carry the level, so entries never collide across levels.
package tilecache

import (
	"container/list"
	"image"
	"sync"
)

// DefaultCapacity bounds the cache when the caller does not choose one.
// 200 tiles comfortably covers a few screens of panning at every level.
const DefaultCapacity = 200

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
	Capacity  int
}

type entry struct {
	key string
	img *image.RGBA
}

// Cache is a strict-LRU tile cache. All methods are safe for concurrent
// use; render completions and viewport reads may hit it from different
// goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	eviction *list.List

	hits, misses, evictions int64
}

// New creates a cache bounded to capacity entries. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Get returns the tile for key, marking it most recently used on a hit.
func (c *Cache) Get(key string) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	c.hits++
	return elem.Value.(*entry).img, true
}

// Put stores a tile. An existing key is updated in place and refreshed;
// a new key at capacity first evicts the least recently used entry.
func (c *Cache) Put(key string, img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		elem.Value.(*entry).img = img
		return
	}
	if c.eviction.Len() >= c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.eviction.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
			c.evictions++
		}
	}
	c.items[key] = c.eviction.PushFront(&entry{key: key, img: img})
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Clear drops every entry unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Len:       len(c.items),
		Capacity:  c.capacity,
	}
}

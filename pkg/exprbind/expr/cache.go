package expr

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the parse cache capacity used when none is given.
const DefaultCacheSize = 256

type cacheEntry struct {
	source string
	expr   *Expression
}

// Cache is an LRU cache of parsed expressions keyed by source string.
// Parse errors are not cached.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// NewCache creates a cache holding at most capacity expressions.
// A capacity <= 0 uses DefaultCacheSize.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached expression for source and marks it most recently
// used.
func (c *Cache) Get(source string) (*Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[source]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).expr, true
}

// Add stores expr, evicting the least recently used entry when full.
func (c *Cache) Add(expr *Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[expr.source]; ok {
		el.Value.(*cacheEntry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		if back := c.ll.Back(); back != nil {
			c.ll.Remove(back)
			delete(c.items, back.Value.(*cacheEntry).source)
		}
	}
	c.items[expr.source] = c.ll.PushFront(&cacheEntry{source: expr.source, expr: expr})
}

// Parse returns the cached expression for source, parsing and caching it
// on a miss.
func (c *Cache) Parse(source string) (*Expression, error) {
	if e, ok := c.Get(source); ok {
		return e, nil
	}
	e, err := Parse(source)
	if err != nil {
		return nil, err
	}
	c.Add(e)
	return e, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Capacity returns the maximum number of cached expressions.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

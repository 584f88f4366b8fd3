package fuzzy

import (
	"container/list"
	"sync"

	"github.com/dshills/wikisearch/internal/search/bitap"
)

// Cache provides LRU caching of compiled queries.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

// cacheEntry holds a compiled query.
type cacheEntry struct {
	query   string
	matcher *bitap.Matcher
}

// NewCache creates a new LRU cache with the given maximum size.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves the compiled matcher for a query.
// Returns nil if not found.
func (c *Cache) Get(query string) *bitap.Matcher {
	// First check with read lock for cache misses (common case)
	c.mu.RLock()
	_, ok := c.items[query]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	// Cache hit - need write lock to update LRU order
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check in case entry was evicted between locks
	elem, ok := c.items[query]
	if !ok {
		return nil
	}

	c.lru.MoveToFront(elem)

	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
	return entry.matcher
}

// Set stores the compiled matcher for a query.
// Matchers are immutable, so the pointer is shared rather than copied.
func (c *Cache) Set(query string, matcher *bitap.Matcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[query]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
		entry.matcher = matcher
		return
	}

	if c.lru.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &cacheEntry{
		query:   query,
		matcher: matcher,
	}
	elem := c.lru.PushFront(entry)
	c.items[query] = elem
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	elem := c.lru.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

// removeElement removes an element from the cache.
// Must be called with lock held.
func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only contains *cacheEntry
	delete(c.items, entry.query)
}

package geocode

import (
	"context"
	"strings"
	"sync"
)

// CachedSearcher wraps a Searcher with an in-memory LRU cache keyed by
// the normalized query.
type CachedSearcher struct {
	inner Searcher
	cache *lruCache
}

// NewCachedSearcher creates a cache decorator around a searcher.
func NewCachedSearcher(inner Searcher, maxEntries int) *CachedSearcher {
	return &CachedSearcher{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if results, ok := c.cache.get(key); ok {
		return results, nil
	}
	results, err := c.inner.Search(ctx, query)
	if err != nil {
		return results, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if len(results) > 0 {
		c.cache.put(key, results)
	}
	return results, nil
}

// lruCache is a simple thread-safe LRU cache for search results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []Result
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

// Package cache provides a bounded cache for parsed queries.
//
// Parsing is the repeated cost of compiling the same query text: the catalog
// and the virtual graph factory recompile their node and edge queries on every
// projection. The cache keeps parse results keyed by query text.
//
// Features:
//   - LRU eviction for bounded memory
//   - TTL expiration (zero disables it)
//   - Safe for concurrent use
//   - Hit/miss statistics
//
// A nil *QueryCache is valid and caches nothing.
//
// Usage:
//
//	c := cache.New[*ast](1000, 5*time.Minute)
//	if q, ok := c.Get(text); ok {
//		return q
//	}
//	q := parse(text)
//	c.Put(text, q)
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DefaultMaxSize is used when New is given a non-positive size.
const DefaultMaxSize = 1000

// QueryCache is an LRU cache of values keyed by query text. Keys are compared
// after trimming surrounding whitespace.
type QueryCache[V any] struct {
	mu sync.Mutex

	maxSize int
	ttl     time.Duration
	now     func() time.Time

	// Front is most recently used.
	list  *list.List
	items map[string]*list.Element

	hits   uint64
	misses uint64
}

type cacheEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// New creates a cache holding at most maxSize entries, each valid for ttl.
func New[V any](maxSize int, ttl time.Duration) *QueryCache[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &QueryCache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		list:    list.New(),
		items:   make(map[string]*list.Element),
	}
}

func normalize(query string) string { return strings.TrimSpace(query) }

// Get returns the value cached for query. Expired entries are removed and
// count as misses.
func (c *QueryCache[V]) Get(query string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[normalize(query)]
	if !ok {
		c.misses++
		return zero, false
	}
	entry := elem.Value.(*cacheEntry[V])
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return zero, false
	}
	c.list.MoveToFront(elem)
	c.hits++
	return entry.value, true
}

// Put stores value for query, evicting the least recently used entry when
// the cache is full. An existing entry is replaced and its TTL restarted.
func (c *QueryCache[V]) Put(query string, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalize(query)
	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry[V])
		entry.value = value
		entry.expiresAt = expiresAt
		c.list.MoveToFront(elem)
		return
	}
	for c.list.Len() >= c.maxSize {
		c.removeElement(c.list.Back())
	}
	c.items[key] = c.list.PushFront(&cacheEntry[V]{key: key, value: value, expiresAt: expiresAt})
}

// Clear removes every entry. Statistics are kept.
func (c *QueryCache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of cached entries.
func (c *QueryCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Stats holds cache performance statistics.
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64 // percentage, 0-100
}

// Stats returns a snapshot of the cache statistics.
func (c *QueryCache[V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Size: c.list.Len(), MaxSize: c.maxSize, Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	return s
}

// removeElement unlinks elem. Caller must hold the lock.
func (c *QueryCache[V]) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry[V]).key)
}

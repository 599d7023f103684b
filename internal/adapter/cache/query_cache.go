package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"docrag/internal/domain"
)

// QueryCache is an LRU cache with TTL for retrieval results, keyed by
// the full request shape (query, topK, filter). One cache belongs to one
// engine snapshot, so a reload starts empty and stale results cannot
// leak across index generations.
type QueryCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[V]
	order   []string // oldest first
	maxSize int
	ttl     time.Duration
}

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

func NewQueryCache[V any](maxSize int, ttl time.Duration) *QueryCache[V] {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &QueryCache[V]{
		entries: make(map[string]*cacheEntry[V]),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Key builds the cache key for one request.
func Key(query string, topK int, filter domain.DocFilter) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteByte('\x00')
	b.WriteString(strconv.Itoa(topK))
	for _, f := range filter {
		b.WriteByte('\x00')
		b.WriteString(f)
	}
	return b.String()
}

func (c *QueryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return zero, false
	}

	c.moveToEnd(key)
	return entry.value, true
}

func (c *QueryCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry[V]{value: value, storedAt: time.Now()}
		c.moveToEnd(key)
		return
	}

	for len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry[V]{value: value, storedAt: time.Now()}
	c.order = append(c.order, key)
}

func (c *QueryCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache[V]) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

package http

import (
	"container/list"
	"sync"
	"time"
)

// LRU cache with TTL and size-based eviction.
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	item := el.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.lru.Remove(el)
		delete(c.items, key)
		return zero, false
	}
	c.lru.MoveToFront(el)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		item := el.Value.(*cacheItem[T])
		item.data = data
		item.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(el)
		return
	}

	el := c.lru.PushFront(&cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[key] = el

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem[T]).key)
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.lru.Remove(el)
		delete(c.items, key)
	}
}

func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleaned := 0
	now := time.Now()
	for key, el := range c.items {
		if now.After(el.Value.(*cacheItem[T]).expiresAt) {
			c.lru.Remove(el)
			delete(c.items, key)
			cleaned++
		}
	}
	return cleaned
}

// generations tracks a per-user fetch generation. Every successful write
// bumps the owner's generation, so cache keys derived from it can never
// serve figures older than the write: the response to the most recently
// issued request wins, not the last one to complete.
type generations struct {
	mu   sync.Mutex
	byID map[string]uint64
}

func newGenerations() *generations {
	return &generations{byID: make(map[string]uint64)}
}

func (g *generations) Current(uid string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.byID[uid]
}

func (g *generations) Bump(uid string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byID[uid]++
}

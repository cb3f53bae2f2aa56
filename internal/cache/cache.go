package cache

import "sync"

// Cache is a thread-safe LRU cache holding at most Capacity entries.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	index    map[K]*node[K, V]
	order    recency[K, V]
	capacity int

	hits, misses int
}

// Stats reports the cache occupancy and hit counters.
type Stats struct {
	Len      int
	Capacity int
	Hits     int
	Misses   int
}

// New creates a cache holding at most capacity entries. A capacity below
// one is raised to one.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		index:    make(map[K]*node[K, V], capacity),
		capacity: capacity,
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.touch(n)
	return n.value, true
}

// Set stores value under key and returns the entry evicted to make room,
// if any.
func (c *Cache[K, V]) Set(key K, value V) (evicted V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.index[key]; exists {
		n.value = value
		c.order.touch(n)
		return evicted, false
	}
	n := &node[K, V]{key: key, value: value}
	c.index[key] = n
	c.order.pushFront(n)
	if c.order.len > c.capacity {
		old := c.order.popBack()
		delete(c.index, old.key)
		return old.value, true
	}
	return evicted, false
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.unlink(n)
	delete(c.index, key)
	return true
}

// Clear removes all entries. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]*node[K, V], c.capacity)
	c.order = recency[K, V]{}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.len
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: c.order.len, Capacity: c.capacity, Hits: c.hits, Misses: c.misses}
}

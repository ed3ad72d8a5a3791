package dates

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Default capacities for the memo caches.
const (
	ParseCacheSize    = 1000
	TaskDateCacheSize = 500
)

// Cache is a bounded memo cache. Capacity is enforced on every Add; the
// least recently used entry is evicted first. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	lru *lru.Cache[K, V]
}

// NewCache returns a cache holding at most size entries.
// A non-positive size falls back to 1.
func NewCache[K comparable, V any](size int) *Cache[K, V] {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[K, V](size)
	if err != nil {
		// Only returned for non-positive sizes.
		panic(err)
	}
	return &Cache[K, V]{lru: c}
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Add stores value under key and reports whether an entry was evicted.
func (c *Cache[K, V]) Add(key K, value V) bool {
	return c.lru.Add(key, value)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}

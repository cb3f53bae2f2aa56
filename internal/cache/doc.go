// Package cache provides a small generic LRU cache.
//
//	c := cache.New[key, *lut.CoordinateMap](4)
//	c.Set(k, m)
//	m, ok := c.Get(k)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache

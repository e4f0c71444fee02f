// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache holds immutable values, such as parsed contract ABIs, evicting the
// least recently used entry when full.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

func NewLRUCache[K comparable, V any](size int) (*LRUCache[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache[K, V]{cache: c}, nil
}

// Get returns the cached value for key or fetches and stores it. If
// [invalidate] is set the entry is removed first.
func (c *LRUCache[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[K, V], invalidate bool) (V, error) {
	if invalidate {
		c.cache.Remove(key)
	} else if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}

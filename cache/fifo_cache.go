// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FIFOCache is a bounded cache that evicts in insertion order. Concurrent
// misses for the same key share one fetch. Values must never change once
// fetched, as with publicly decrypted handles.
type FIFOCache[K comparable, V any] struct {
	lock     sync.RWMutex
	data     map[K]V
	queue    []K
	capacity int
	sf       singleflight.Group
}

func NewFIFOCache[K comparable, V any](capacity int) *FIFOCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFOCache[K, V]{
		data:     make(map[K]V, capacity),
		queue:    make([]K, 0, capacity),
		capacity: capacity,
	}
}

func (c *FIFOCache[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[K, V]) (V, error) {
	c.lock.RLock()
	if v, ok := c.data[key]; ok {
		c.lock.RUnlock()
		return v, nil
	}
	c.lock.RUnlock()

	return doShared(ctx, &c.sf, key, func(ctx context.Context) (V, error) {
		value, err := fetch(ctx, key)
		if err != nil {
			return value, err
		}
		c.lock.Lock()
		c.set(key, value)
		c.lock.Unlock()
		return value, nil
	})
}

// set must be called with the write lock held.
func (c *FIFOCache[K, V]) set(key K, value V) {
	if _, ok := c.data[key]; ok {
		c.data[key] = value
		return
	}
	if len(c.queue) >= c.capacity {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.data, oldest)
	}
	c.data[key] = value
	c.queue = append(c.queue, key)
}

func (c *FIFOCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.data)
}

// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for key on a cache miss.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

type ttlEntry[V any] struct {
	value   V
	fetched time.Time
}

// TTLCache keeps each value for a fixed time-to-live. Concurrent misses for
// the same key share one fetch.
type TTLCache[K comparable, V any] struct {
	ttl  time.Duration
	now  func() time.Time
	lock sync.RWMutex
	data map[K]ttlEntry[V]
	sf   singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:  ttl,
		now:  time.Now,
		data: make(map[K]ttlEntry[V]),
	}
}

// Get returns the cached value for key if it is younger than the TTL,
// otherwise it fetches it. If [invalidate] is set the entry is dropped
// before fetching so no caller can observe the stale value.
func (c *TTLCache[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[K, V], invalidate bool) (V, error) {
	if invalidate {
		c.Invalidate(key)
	} else if v, ok := c.lookup(key); ok {
		return v, nil
	}

	return doShared(ctx, &c.sf, key, func(ctx context.Context) (V, error) {
		value, err := fetch(ctx, key)
		if err != nil {
			return value, err
		}
		c.lock.Lock()
		c.data[key] = ttlEntry[V]{value: value, fetched: c.now()}
		c.lock.Unlock()
		return value, nil
	})
}

func (c *TTLCache[K, V]) lookup(key K) (V, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	e, ok := c.data[key]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Invalidate(key K) {
	c.lock.Lock()
	delete(c.data, key)
	c.lock.Unlock()
}

// doShared runs fetch once for all concurrent callers of key. The fetch is
// detached from the cancellation of whichever caller started it; each caller
// stops waiting when its own ctx is done.
func doShared[K comparable, V any](ctx context.Context, sf *singleflight.Group, key K, fetch func(context.Context) (V, error)) (V, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := sf.DoChan(keyToString(key), func() (interface{}, error) {
		return fetch(fetchCtx)
	})
	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// keyToString supports both fmt.Stringer and primitive key types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}

// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package blockio

import (
	"github.com/cockroachdb/swiss"

	"github.com/quartzdb/quartz/internal/metrics"
)

// Cache is a bounded, best-effort read cache over a Device. It holds no
// authority over what is valid: entries are invalidated by block number
// whenever the owning revision advances past what the cache entry reflects.
// It exists purely to avoid re-issuing a ReadBlock syscall for blocks that
// were just read or written within the same transaction (commonly the root
// and upper internal levels).
type Cache struct {
	dev     Device
	entries *swiss.Map[int64, []byte]
	cap     int
	met     *metrics.Metrics
}

// NewCache wraps dev with a cache holding up to capacity block buffers. met
// may be nil, in which case hit/miss counts are simply not recorded.
func NewCache(dev Device, capacity int, met *metrics.Metrics) *Cache {
	return &Cache{
		dev:     dev,
		entries: swiss.New[int64, []byte](capacity),
		cap:     capacity,
		met:     met,
	}
}

// ReadBlock returns buf populated with block n's contents, from the cache
// if present, else from the underlying device (populating the cache on the
// way out).
func (c *Cache) ReadBlock(n int64, buf []byte) error {
	if cached, ok := c.entries.Get(n); ok {
		copy(buf, cached)
		if c.met != nil {
			c.met.CacheHits.Inc()
		}
		return nil
	}
	if c.met != nil {
		c.met.CacheMisses.Inc()
	}
	if err := c.dev.ReadBlock(n, buf); err != nil {
		return err
	}
	c.put(n, buf)
	return nil
}

// WriteBlock writes through to the device and refreshes the cache entry.
func (c *Cache) WriteBlock(n int64, buf []byte) error {
	if err := c.dev.WriteBlock(n, buf); err != nil {
		return err
	}
	c.put(n, buf)
	return nil
}

// Invalidate drops a cached entry, e.g. because the block was freed or
// rewritten under a new number by copy-on-write.
func (c *Cache) Invalidate(n int64) {
	c.entries.Delete(n)
}

// Invalidator is implemented by a Device that caches block contents keyed
// by block number and needs telling when a number is freed, so a later
// reallocation of that number can't be served stale content out of cache.
type Invalidator interface {
	Invalidate(n int64)
}

var _ Invalidator = (*Cache)(nil)

// Flush forwards to the underlying device.
func (c *Cache) Flush() error { return c.dev.Flush() }

// Close forwards to the underlying device.
func (c *Cache) Close() error { return c.dev.Close() }

func (c *Cache) put(n int64, buf []byte) {
	if c.entries.Len() >= c.cap {
		// Best-effort eviction: drop an arbitrary entry rather than
		// maintaining LRU order, since this is a hint cache, not a source
		// of truth.
		c.entries.All()(func(k int64, _ []byte) bool {
			c.entries.Delete(k)
			return false
		})
	}
	cp := append([]byte(nil), buf...)
	c.entries.Put(n, cp)
}

var _ Device = (*Cache)(nil)

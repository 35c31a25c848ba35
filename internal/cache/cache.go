// SPDX-License-Identifier: MIT

// Package cache provides byte-oriented TTL caches (in-memory and Redis) plus
// JSON helpers on top of them.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache stores opaque values with a TTL.
type Cache interface {
	// Get returns the value for key; ok is false when missing or expired.
	Get(ctx context.Context, key string) (val []byte, ok bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Stats() Stats
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// GetJSON decodes a cached JSON value into T.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.Delete(ctx, key)
		return out, false
	}
	return out, true
}

// SetJSON encodes v as JSON and caches it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(ctx, key, raw, ttl)
	return nil
}

type entry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is an in-process Cache with an optional background janitor.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	stats   Stats
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryCache creates a cache; a positive cleanupInterval starts a janitor
// that drops expired entries until Close.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true
}

func (c *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	buf := make([]byte, len(val))
	copy(buf, val)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{val: buf, expires: c.now().Add(ttl)}
	c.stats.Sets++
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

// Close stops the janitor.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *MemoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	c.stats.Evictions += int64(n)
	return n
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (NopCache) Set(context.Context, string, []byte, time.Duration) {}
func (NopCache) Delete(context.Context, string)                     {}
func (NopCache) Stats() Stats                                       { return Stats{} }
func (NopCache) Close() error                                       { return nil }

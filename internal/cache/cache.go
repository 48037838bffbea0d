// Package cache holds API responses in memory for a per-endpoint TTL.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	MinTTL     = time.Minute
	MaxTTL     = 30 * time.Minute
	DefaultTTL = 5 * time.Minute
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats reports cache effectiveness since creation or the last Clear.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache is an in-memory TTL cache safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttls    map[string]time.Duration
	dflt    time.Duration
	hits    int64
	misses  int64
	now     func() time.Time
}

// DefaultEndpoint is the ttls key used for endpoints without their own TTL.
const DefaultEndpoint = "default"

// New creates a cache. ttls maps an endpoint name to its lifetime; each is
// clamped to [MinTTL, MaxTTL]. Endpoints not listed use the DefaultEndpoint
// entry, or DefaultTTL when that is missing too.
func New(ttls map[string]time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttls:    make(map[string]time.Duration, len(ttls)),
		dflt:    DefaultTTL,
		now:     time.Now,
	}
	for endpoint, ttl := range ttls {
		if endpoint == DefaultEndpoint {
			c.dflt = clamp(ttl)
			continue
		}
		c.ttls[endpoint] = clamp(ttl)
	}
	return c
}

func clamp(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	}
	return ttl
}

// TTL returns the lifetime used for an endpoint.
func (c *Cache) TTL(endpoint string) time.Duration {
	if ttl, ok := c.ttls[endpoint]; ok {
		return ttl
	}
	return c.dflt
}

// Get returns a live value. Expired entries are removed on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key for the endpoint's TTL.
func (c *Cache) Set(endpoint, key string, value any) {
	c.SetTTL(key, value, c.TTL(endpoint))
}

// SetTTL stores value under key for an explicit duration.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry and resets the counters. It returns how many
// entries were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.hits, c.misses = 0, 0
	return n
}

// Prune removes expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Run prunes on every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// Key builds a stable key from an endpoint and its parameters. Parameters
// are sorted by name and empty values are left out.
func Key(endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range names {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

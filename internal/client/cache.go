package client

import (
	"sync"
	"time"
)

// cache holds decoded read envelopes keyed by request. Entries are tagged
// with the entity they describe; a mutation drops every entry of the
// entities it touches and the next read refetches.
type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	entity  string
	env     *envelope
	expires time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func (c *cache) get(key string) (*envelope, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.env, true
}

func (c *cache) put(entity, key string, env *envelope) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{entity: entity, env: env, expires: c.now().Add(c.ttl)}
}

func (c *cache) invalidate(entities ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		for _, entity := range entities {
			if e.entity == entity {
				delete(c.entries, key)
				break
			}
		}
	}
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

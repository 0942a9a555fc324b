package catalog

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of decoded payloads a Store keeps.
const DefaultCacheSize = 128

// payloadCache maps normalized id to the validated JSON payload. Entries are
// only ever added on a read and removed on a write; nothing else refreshes them.
type payloadCache struct {
	lru *lru.Cache[string, string]
}

func newPayloadCache(size int) *payloadCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &payloadCache{lru: c}
}

func (c *payloadCache) get(id string) (string, bool) { return c.lru.Get(id) }
func (c *payloadCache) put(id, raw string) { c.lru.Add(id, raw) }
func (c *payloadCache) invalidate(id string) { c.lru.Remove(id) }
func (c *payloadCache) purge() { c.lru.Purge() }
func (c *payloadCache) len() int { return c.lru.Len() }

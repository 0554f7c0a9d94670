// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/metrics"
)

// ChannelsSuffix is appended to a source file's base name when a source does not
// name its channel document.
const ChannelsSuffix = ".channels.xml"

// CacheStats holds cache counters.
type CacheStats struct {
	Hits          int64 // lookups answered from the cache
	Misses        int64 // lookups that created a catalog
	Registrations int64 // channel blocks registered or re-registered
	CurrentSize   int   // catalogs held
}

// Cache shares catalogs between every source that references the same channel
// document, so they share one parse result and one refresh clock. Catalogs live
// as long as the cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Catalog
	stats   CacheStats
	env     env
}

// NewCache returns an empty cache. Options are passed on to every catalog it creates.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		entries: make(map[string]*Catalog),
		env:     newEnv(opts),
	}
}

// Get returns the catalog stored under key.
func (c *Cache) Get(key string) (*Catalog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.entries[key]
	return cat, ok
}

// Register records a channel block. An existing catalog only gets its URLs
// replaced; its parsed table is kept.
func (c *Cache) Register(name string, urls []string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Registrations++
	if cat, ok := c.entries[name]; ok {
		cat.SetURLs(urls)
		c.env.logger.Debug().Str(xglog.FieldCatalog, name).Strs("urls", urls).Msg("channel block re-registered")
		return cat
	}
	if urls == nil {
		urls = []string{}
	}
	cat := newCatalog(name, urls, 0, c.env)
	c.storeLocked(name, cat)
	return cat
}

// Resolve returns the catalog a source refers to with its channels attribute.
//
// A catalog registered under name wins. Otherwise name is a document location,
// relative to the source file's directory when local. Without a name, the
// source file's base name up to the first dot plus ChannelsSuffix is used.
func (c *Cache) Resolve(sourcePath, name string, offset int) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cat, ok := c.entries[name]; ok {
		c.stats.Hits++
		return cat
	}

	dir, base := filepath.Split(sourcePath)
	var location string
	switch {
	case name == "":
		stem, _, _ := strings.Cut(base, ".")
		location = filepath.Join(dir, stem+ChannelsSuffix)
	case IsLocal(name):
		location = filepath.Join(dir, name)
	default:
		location = name
	}

	if cat, ok := c.entries[location]; ok {
		c.stats.Hits++
		return cat
	}

	c.stats.Misses++
	cat := newCatalog(location, nil, offset, c.env)
	c.storeLocked(location, cat)
	return cat
}

func (c *Cache) storeLocked(key string, cat *Catalog) {
	c.entries[key] = cat
	metrics.SetCatalogsCached(len(c.entries))
}

// Keys returns the cache keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// All returns the cached catalogs ordered by key.
func (c *Cache) All() []*Catalog {
	keys := c.Keys()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Catalog, 0, len(keys))
	for _, k := range keys {
		if cat, ok := c.entries[k]; ok {
			out = append(out, cat)
		}
	}
	return out
}

// Len returns the number of cached catalogs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

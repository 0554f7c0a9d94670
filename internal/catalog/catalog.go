// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog holds channel-mapping documents: for every lowercased channel
// identifier found in an EPG feed, the ordered list of receiver service
// references it stands for.
//
// A Catalog is parsed lazily from a local file or from a file the caller has
// downloaded on its behalf. It tracks when it was last refreshed so callers can
// ask whether a remote document is due again (at most once per DownloadInterval)
// or whether a local one changed on disk.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// DownloadInterval is the minimum time between two fetches of a remote catalog.
const DownloadInterval = 24 * time.Hour

// AcceptFunc decides whether a service reference may enter a catalog. A nil
// AcceptFunc accepts every reference.
type AcceptFunc func(ref string) bool

// Catalog is one channel-mapping document and its parsed state.
type Catalog struct {
	// Name is the cache key: a file path or a channel-block name.
	Name string
	// TimeOffset is a signed minute offset for consumers of this catalog's data.
	TimeOffset int

	mu           sync.Mutex
	urls         []string
	items        map[string][]string
	lastModified time.Time
	env          env
}

// New returns an unparsed catalog. With no urls the name itself is the only location.
func New(name string, urls []string, opts ...Option) *Catalog {
	return newCatalog(name, urls, 0, newEnv(opts))
}

func newCatalog(name string, urls []string, offset int, e env) *Catalog {
	if urls == nil {
		urls = []string{name}
	}
	return &Catalog{
		Name:       name,
		TimeOffset: offset,
		urls:       slices.Clone(urls),
		env:        e,
	}
}

// URLs returns the fetch locations.
func (c *Catalog) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.urls)
}

// SetURLs replaces the fetch locations. Parsed items are kept.
func (c *Catalog) SetURLs(urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = slices.Clone(urls)
}

// LocalOnly reports whether the catalog is a single local file.
func (c *Catalog) LocalOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localOnlyLocked()
}

func (c *Catalog) localOnlyLocked() bool {
	return len(c.urls) == 1 && IsLocal(c.urls[0])
}

// IsLocal reports whether location names a local file rather than a URL.
func IsLocal(location string) bool {
	return !strings.Contains(location, "://")
}

// Parsed reports whether the catalog has been parsed at least once.
func (c *Catalog) Parsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items != nil
}

// Items returns a copy of the identifier table, or nil when never parsed.
func (c *Catalog) Items() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		return nil
	}
	out := make(map[string][]string, len(c.items))
	for id, refs := range c.items {
		out[id] = slices.Clone(refs)
	}
	return out
}

// Lookup returns the references of a channel identifier.
func (c *Catalog) Lookup(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items[strings.ToLower(id)])
}

// Len returns the number of identifiers in the table.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// LastModified returns the time of the last refresh and whether there was one.
func (c *Catalog) LastModified() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastModified, !c.lastModified.IsZero()
}

func (c *Catalog) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	channels := "none"
	if c.items != nil {
		channels = fmt.Sprint(len(c.items))
	}
	mtime := "none"
	if !c.lastModified.IsZero() {
		mtime = c.lastModified.Format(time.RFC3339)
	}
	return fmt.Sprintf("Catalog(name=%s, urls=%v, channels=%s, mtime=%s)", c.Name, c.urls, channels, mtime)
}

// add appends ref to id and dedupes. It reports whether the list grew.
func (c *Catalog) add(id, ref string) bool {
	before := len(c.items[id])
	c.items[id] = dedupe(append(c.items[id], ref))
	return len(c.items[id]) > before
}

// remove drops ref from id. The list is deduped first, so the first occurrence
// is the only one. It reports whether something was removed.
func (c *Catalog) remove(id, ref string) bool {
	refs, ok := c.items[id]
	if !ok || !slices.Contains(refs, ref) {
		return false
	}
	refs = dedupe(refs)
	i := slices.Index(refs, ref)
	c.items[id] = slices.Delete(refs, i, i+1)
	return true
}

// dedupe removes repeated values keeping the first occurrence of each.
func dedupe(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

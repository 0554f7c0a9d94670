// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"os"
	"slices"
	"time"

	xglog "github.com/ManuGH/epgimport/internal/log"
)

// Update refreshes the identifier table.
//
// The custom override document is always parsed first, filtered, so operator
// corrections can add and veto entries. Then:
//   - with a downloadedFile, that file is parsed additively and the catalog is
//     marked refreshed now;
//   - for a local-only catalog, the file is parsed when it was never parsed or
//     its modification time is newer, and that modification time is recorded;
//   - otherwise nothing happens until the caller downloads the document.
func (c *Catalog) Update(accept AcceptFunc, downloadedFile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.parseCustomLocked(accept)

	if downloadedFile != "" {
		c.lastModified = c.env.now()
		return c.parseLocked(accept, downloadedFile, false)
	}

	if !c.localOnlyLocked() {
		return nil
	}

	path := c.urls[0]
	var mtime time.Time
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime()
	}
	if !c.lastModified.IsZero() && !mtime.After(c.lastModified) {
		c.env.logger.Debug().
			Str(xglog.FieldCatalog, c.Name).
			Str(xglog.FieldPath, path).
			Msg("channel document unchanged, keeping parsed table")
		return nil
	}

	err := c.parseLocked(accept, path, true)
	c.lastModified = mtime
	return err
}

func (c *Catalog) parseCustomLocked(accept AcceptFunc) {
	custom := c.env.customPath
	if custom == "" {
		return
	}
	if _, err := os.Stat(custom); err != nil {
		return
	}
	if err := c.parseLocked(accept, custom, true); err != nil {
		c.env.logger.Warn().Err(err).
			Str(xglog.FieldCatalog, c.Name).
			Str(xglog.FieldPath, custom).
			Msg("custom channel overrides not applied")
	}
}

// Downloadables returns the locations to fetch, or nil when nothing is due.
// Local-only catalogs are never downloaded; remote ones at most once per
// DownloadInterval.
func (c *Catalog) Downloadables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.localOnlyLocked() || len(c.urls) == 0 {
		return nil
	}
	if c.lastModified.IsZero() || c.env.now().Sub(c.lastModified) > DownloadInterval {
		return slices.Clone(c.urls)
	}
	return nil
}

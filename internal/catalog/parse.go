// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/epgimport/internal/filter"
	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/metrics"
	"github.com/rs/zerolog"
)

// channelElement is one <channel id="...">service ref</channel> entry.
type channelElement struct {
	ID  string `xml:"id,attr"`
	Ref string `xml:",chardata"`
}

// Parse streams the channel elements of documentPath into the identifier table.
//
// With filterEnabled, an element whose identifier matches the channel id filter
// removes its reference instead of adding it. References rejected by accept are
// ignored either way. A decode error stops the parse; elements already applied
// stay applied.
func (c *Catalog) Parse(accept AcceptFunc, documentPath string, filterEnabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parseLocked(accept, documentPath, filterEnabled)
}

func (c *Catalog) parseLocked(accept AcceptFunc, documentPath string, filterEnabled bool) error {
	logger := c.env.logger.With().
		Str(xglog.FieldCatalog, c.Name).
		Str(xglog.FieldPath, documentPath).
		Logger()
	logger.Info().Bool("filtered", filterEnabled).Msg("parsing channels")

	idFilter := filter.CompileWithLogger(c.env.filterPath, c.env.logger)
	if c.items == nil {
		c.items = make(map[string][]string)
	}

	rc, err := OpenDocument(documentPath)
	if err != nil {
		metrics.RecordCatalogParseError(openFailureReason(err))
		logger.Error().Err(err).Msg("failed to open channel document")
		return err
	}
	defer func() { _ = rc.Close() }()
	metrics.RecordCatalogParse(filterEnabled)

	var (
		added, removed int
		lastID         string
	)
	defer func() {
		metrics.RecordCatalogRefs(metrics.OpAdd, added)
		metrics.RecordCatalogRefs(metrics.OpRemove, removed)
	}()

	dec := NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parseFailed(logger, documentPath, lastID, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "channel" {
			continue
		}

		var el channelElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return parseFailed(logger, documentPath, lastID, err)
		}
		id := strings.ToLower(el.ID)
		ref := strings.TrimSpace(el.Ref)
		lastID = id
		if id == "" || ref == "" {
			continue
		}

		if filterEnabled {
			if matched, hit := idFilter.Match(id); hit {
				if matched != "" {
					logger.Info().
						Str(xglog.FieldChannelID, id).
						Str(xglog.FieldServiceRef, ref).
						Str("matched", matched).
						Msg("skipping channel due to channel id filter")
				}
				if (accept == nil || accept(ref)) && c.remove(id, ref) {
					removed++
				}
				continue
			}
		}
		if accept != nil && !accept(ref) {
			continue
		}
		if c.add(id, ref) {
			added++
		}
	}

	logger.Debug().Int("added", added).Int("removed", removed).Int("channels", len(c.items)).Msg("channels parsed")
	return nil
}

func parseFailed(logger zerolog.Logger, documentPath, lastID string, err error) error {
	metrics.RecordCatalogParseError("decode")
	wrapped := fmt.Errorf("parse %s (after channel %q): %w", documentPath, lastID, err)
	logger.Error().Err(err).Str(xglog.FieldChannelID, lastID).Msg("failed to parse channel document")
	return wrapped
}

func openFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrEmptyFile):
		return "empty"
	default:
		return "open"
	}
}

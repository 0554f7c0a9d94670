// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sources enumerates EPG source-definition documents (*.sources.xml).
//
// A document groups <source> feeds under <sourcecat> markers and may declare
// shared channel-mapping documents in top-level <channel> blocks:
//
//	<sources>
//	  <channel name="rytec.channels.xml.xz">
//	    <url>http://mirror-a/rytec.channels.xml.xz</url>
//	  </channel>
//	  <sourcecat sourcecatname="Germany">
//	    <source type="gen_xmltv" channels="rytec.channels.xml.xz" offset="+0100">
//	      <description>Rytec DE Basic</description>
//	      <url>http://mirror-a/rytecDE_Basic.xz</url>
//	      <url>http://mirror-b/rytecDE_Basic.xz</url>
//	    </source>
//	  </sourcecat>
//	</sources>
//
// Enumeration is a lazy, forward-only stream: each element is decoded, handed
// out and dropped before the next one is read.
package sources

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/epgimport/internal/catalog"
	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/metrics"
	"github.com/rs/zerolog"
)

// Suffix marks source-definition documents in a directory.
const Suffix = ".sources.xml"

// DefaultDir is where receivers keep source-definition documents.
const DefaultDir = "/etc/epgimport"

type sourceElement struct {
	Type        string   `xml:"type,attr"`
	Format      string   `xml:"format,attr"`
	NoCheck     string   `xml:"nocheck,attr"`
	Channels    string   `xml:"channels,attr"`
	Offset      string   `xml:"offset,attr"`
	URLs        []string `xml:"url"`
	Description string   `xml:"description"`
}

type channelBlock struct {
	Name string   `xml:"name,attr"`
	URLs []string `xml:"url"`
}

// Option configures a Directory.
type Option func(*Directory)

// WithPicker replaces the mirror selection strategy.
func WithPicker(p Picker) Option {
	return func(d *Directory) {
		if p != nil {
			d.picker = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

// Directory enumerates the source-definition documents of one directory and
// registers the channel documents they reference in a shared catalog cache.
type Directory struct {
	Path   string
	cache  *catalog.Cache
	picker Picker
	logger zerolog.Logger
}

// NewDirectory returns a Directory for path backed by cache.
func NewDirectory(path string, cache *catalog.Cache, opts ...Option) *Directory {
	d := &Directory{
		Path:   path,
		cache:  cache,
		picker: RandomPicker,
		logger: xglog.WithComponent("sources"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cache returns the catalog cache the directory registers channel documents in.
func (d *Directory) Cache() *catalog.Cache {
	return d.cache
}

// All enumerates every *.sources.xml file of the directory in listing order.
// Files that fail are logged and skipped; a directory that cannot be listed
// yields nothing.
func (d *Directory) All(selection Selection, withCategories bool) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		entries, err := os.ReadDir(d.Path)
		if err != nil {
			d.logger.Error().Err(err).Str(xglog.FieldPath, d.Path).Msg("failed to list source directory")
			return
		}
		for _, de := range entries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), Suffix) {
				continue
			}
			path := filepath.Join(d.Path, de.Name())
			stopped, err := d.walk(path, selection, withCategories, yield)
			if err != nil {
				metrics.IncSourceFileErrors()
				d.logger.Error().Err(err).Str(xglog.FieldPath, path).Msg("failed to read source file")
			}
			if stopped {
				return
			}
		}
	}
}

// File enumerates one source-definition document. Errors end the sequence and
// are logged; entries already yielded stand.
func (d *Directory) File(path string, selection Selection, withCategories bool) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if _, err := d.walk(path, selection, withCategories, yield); err != nil {
			metrics.IncSourceFileErrors()
			d.logger.Error().Err(err).Str(xglog.FieldPath, path).Msg("failed to read source file")
		}
	}
}

// walk streams one document into yield. stopped reports that the consumer
// ended the iteration.
func (d *Directory) walk(path string, selection Selection, withCategories bool, yield func(Entry) bool) (stopped bool, err error) {
	// #nosec G304 -- paths come from listing the configured sources directory
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := catalog.NewDecoder(f)
	category := ""
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", path, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sourcecat":
				// the category is needed before the sources inside it
				category = attr(el, "sourcecatname")
				if category == "" {
					category = attr(el, "name")
				}
				if withCategories && !yield(Entry{Category: category}) {
					return true, nil
				}

			case "source":
				var se sourceElement
				if err := dec.DecodeElement(&se, &el); err != nil {
					return false, fmt.Errorf("parse %s: source: %w", path, err)
				}
				src, ok := d.buildSource(path, category, se)
				if !ok {
					continue
				}
				metrics.IncSourcesEnumerated()
				if selection.Contains(src.Description) && !yield(Entry{Category: category, Source: src}) {
					return true, nil
				}

			case "channel":
				var cb channelBlock
				if err := dec.DecodeElement(&cb, &el); err != nil {
					return false, fmt.Errorf("parse %s: channel: %w", path, err)
				}
				d.cache.Register(cb.Name, trimAll(cb.URLs))
			}

		case xml.EndElement:
			if el.Name.Local == "sourcecat" {
				category = ""
			}
		}
	}
}

func (d *Directory) buildSource(path, category string, se sourceElement) (*Source, bool) {
	urls := trimAll(se.URLs)
	if len(urls) == 0 {
		d.logger.Warn().
			Str(xglog.FieldPath, path).
			Str(xglog.FieldCategory, category).
			Str(xglog.FieldSource, se.Description).
			Msg("source without url skipped")
		return nil, false
	}

	offset := ParseOffset(se.Offset)
	nocheck, ok := parseNoCheck(se.NoCheck)
	if !ok {
		d.logger.Warn().
			Str(xglog.FieldPath, path).
			Str(xglog.FieldCategory, category).
			Str("nocheck", se.NoCheck).
			Msg("invalid nocheck attribute, using 0")
	}

	src := &Source{
		Parser:      orDefault(se.Type, DefaultParser),
		Format:      orDefault(se.Format, DefaultFormat),
		NoCheck:     nocheck,
		URLs:        urls,
		URL:         d.picker(urls),
		Description: strings.TrimSpace(se.Description),
		Category:    category,
		TimeOffset:  offset,
		Channels:    d.cache.Resolve(path, se.Channels, offset),
	}
	if src.Description == "" {
		src.Description = src.URL
	}
	d.logger.Debug().
		Str(xglog.FieldSource, src.Description).
		Str(xglog.FieldCategory, category).
		Str(xglog.FieldURL, src.URL).
		Int("mirrors", len(urls)).
		Msg("source mirror picked")
	return src, true
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

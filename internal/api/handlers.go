// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/epgimport/internal/catalog"
	"github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/settings"
	"github.com/ManuGH/epgimport/internal/sources"
)

type sourceView struct {
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Parser      string   `json:"parser"`
	Format      string   `json:"format"`
	URL         string   `json:"url"`
	URLs        []string `json:"urls"`
	NoCheck     int      `json:"nocheck"`
	TimeOffset  int      `json:"offsetMinutes"`
	Channels    string   `json:"channels,omitempty"`
}

type groupView struct {
	Category string       `json:"category"`
	Sources  []sourceView `json:"sources"`
}

type catalogView struct {
	Name         string     `json:"name"`
	URLs         []string   `json:"urls"`
	LocalOnly    bool       `json:"localOnly"`
	Parsed       bool       `json:"parsed"`
	Items        int        `json:"items"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

type cacheView struct {
	Catalogs      int   `json:"catalogs"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Registrations int64 `json:"registrations"`
}

type downloadView struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

type channelView struct {
	Catalog    string   `json:"catalog"`
	ID         string   `json:"id"`
	References []string `json:"references"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	var sel sources.Selection
	if r.URL.Query().Get("selected") == "1" {
		sel = sources.NewSelection(settings.Load(s.settingsFile).Sources)
	}

	groups := sources.GroupByCategory(s.dir.All(sel, true))
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		gv := groupView{Category: g.Category, Sources: make([]sourceView, 0, len(g.Sources))}
		for _, src := range g.Sources {
			gv.Sources = append(gv.Sources, newSourceView(src))
		}
		out = append(out, gv)
	}
	writeJSON(w, http.StatusOK, out)
}

func newSourceView(src *sources.Source) sourceView {
	v := sourceView{
		Description: src.Description,
		Category:    src.Category,
		Parser:      src.Parser,
		Format:      src.Format,
		URL:         src.URL,
		URLs:        src.URLs,
		NoCheck:     src.NoCheck,
		TimeOffset:  src.TimeOffset,
	}
	if src.Channels != nil {
		v.Channels = src.Channels.Name
	}
	return v
}

func (s *Server) handleCatalogs(w http.ResponseWriter, _ *http.Request) {
	all := s.dir.Cache().All()
	out := make([]catalogView, 0, len(all))
	for _, c := range all {
		out = append(out, newCatalogView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func newCatalogView(c *catalog.Catalog) catalogView {
	v := catalogView{
		Name:      c.Name,
		URLs:      c.URLs(),
		LocalOnly: c.LocalOnly(),
		Parsed:    c.Parsed(),
		Items:     c.Len(),
	}
	if mod, ok := c.LastModified(); ok {
		v.LastModified = &mod
	}
	return v
}

func (s *Server) handleCache(w http.ResponseWriter, _ *http.Request) {
	st := s.dir.Cache().Stats()
	writeJSON(w, http.StatusOK, cacheView{
		Catalogs:      st.CurrentSize,
		Hits:          st.Hits,
		Misses:        st.Misses,
		Registrations: st.Registrations,
	})
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	logger := log.WithContext(r.Context(), s.logger)

	name, errName := url.PathUnescape(chi.URLParam(r, "name"))
	id, errID := url.PathUnescape(chi.URLParam(r, "id"))
	if errName != nil || errID != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid path escape"})
		return
	}

	cat, ok := s.dir.Cache().Get(name)
	if !ok {
		logger.Debug().Str(log.FieldCatalog, name).Msg("catalog not cached")
		writeNotFound(w, "unknown catalog")
		return
	}
	refs := cat.Lookup(id)
	if len(refs) == 0 {
		writeNotFound(w, "unknown channel id")
		return
	}
	writeJSON(w, http.StatusOK, channelView{Catalog: cat.Name, ID: id, References: refs})
}

func (s *Server) handleDownloads(w http.ResponseWriter, _ *http.Request) {
	out := []downloadView{}
	for _, c := range s.dir.Cache().All() {
		if urls := c.Downloadables(); urls != nil {
			out = append(out, downloadView{Name: c.Name, URLs: urls})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

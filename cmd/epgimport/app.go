// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/epgimport/internal/catalog"
	"github.com/ManuGH/epgimport/internal/config"
	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/serviceref"
	"github.com/ManuGH/epgimport/internal/settings"
	"github.com/ManuGH/epgimport/internal/sources"
)

// app is the wiring shared by every command.
type app struct {
	cfg    config.AppConfig
	cache  *catalog.Cache
	dir    *sources.Directory
	accept catalog.AcceptFunc
	logger zerolog.Logger
}

// newFlagSet returns a flag set with the common -config flag.
func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("epgimport "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	return fs, configPath
}

// loadApp loads the configuration and builds the engine. Logs go to stderr so
// command output stays machine readable.
func loadApp(configPath string, stderr io.Writer) (*app, error) {
	xglog.Configure(xglog.Config{Level: "info", Output: stderr, Service: "epgimport", Version: version})

	cfg, err := config.NewLoader(strings.TrimSpace(configPath), version).Load()
	if err != nil {
		return nil, err
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  stderr,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger := xglog.WithComponent("cli")

	cache := catalog.NewCache(
		catalog.WithFilterPath(cfg.FilterFile),
		catalog.WithCustomChannelsPath(cfg.CustomChannelsFile),
	)
	return &app{
		cfg:    cfg,
		cache:  cache,
		dir:    sources.NewDirectory(cfg.SourcesDir, cache),
		accept: serviceref.Acceptor(cfg.ServiceTypes, cfg.AllowIPTV),
		logger: logger,
	}, nil
}

// selection returns the stored selection, or nil (everything) when all is set.
func (a *app) selection(all bool) sources.Selection {
	if all {
		return nil
	}
	return sources.NewSelection(settings.Load(a.cfg.SettingsFile).Sources)
}

// due is a catalog that still needs a download.
type due struct {
	Name string
	URLs []string
}

// refresh enumerates the selected sources and updates each distinct catalog
// once. downloaded maps catalog names to already fetched documents. It returns
// the catalogs still due for download in first-seen order.
func (a *app) refresh(sel sources.Selection, downloaded map[string]string) []due {
	seen := make(map[*catalog.Catalog]bool)
	var out []due
	for _, src := range sources.Collect(a.dir.All(sel, false)) {
		cat := src.Channels
		if cat == nil || seen[cat] {
			continue
		}
		seen[cat] = true

		if err := cat.Update(a.accept, downloaded[cat.Name]); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldCatalog, cat.Name).Msg("catalog update failed")
		}
		if urls := cat.Downloadables(); urls != nil {
			out = append(out, due{Name: cat.Name, URLs: urls})
		}
	}
	return out
}

// downloadFlags collects repeated -downloaded name=path flags.
type downloadFlags map[string]string

func (d downloadFlags) String() string {
	parts := make([]string, 0, len(d))
	for k, v := range d {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (d downloadFlags) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("expected name=path, got %q", v)
	}
	d[name] = path
	return nil
}

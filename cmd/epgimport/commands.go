// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/epgimport/internal/api"
	"github.com/ManuGH/epgimport/internal/filter"
	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/serviceref"
	"github.com/ManuGH/epgimport/internal/settings"
	"github.com/ManuGH/epgimport/internal/sources"
)

// setup parses flags and loads the app. A non-zero code means the command must stop.
func setup(fs *flag.FlagSet, args []string, configPath *string, stderr io.Writer) (*app, int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0
		}
		return nil, 2
	}
	a, err := loadApp(*configPath, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return nil, 1
	}
	return a, -1
}

func runSources(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("sources", stderr)
	selected := fs.Bool("selected", false, "only list sources in the stored selection")
	categories := fs.Bool("categories", false, "group sources by category")
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}

	sel := a.selection(!*selected)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	printSource := func(indent string, src *sources.Source) {
		_, _ = fmt.Fprintf(tw, "%s%s\t%s\t%s\t%+d\n", indent, src.Description, src.URL, src.Channels.Name, src.TimeOffset)
	}

	if !*categories {
		for _, src := range sources.Collect(a.dir.All(sel, false)) {
			printSource("", src)
		}
		return 0
	}
	for _, g := range sources.GroupByCategory(a.dir.All(sel, true)) {
		name := g.Category
		if name == "" {
			name = "(uncategorized)"
		}
		_, _ = fmt.Fprintf(tw, "[%s]\n", name)
		for _, src := range g.Sources {
			printSource("  ", src)
		}
	}
	return 0
}

func runSelect(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("select", stderr)
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}

	descriptions := fs.Args()
	known := make(map[string]bool)
	for _, src := range sources.Collect(a.dir.All(nil, false)) {
		known[src.Description] = true
	}
	for _, d := range descriptions {
		if !known[d] {
			a.logger.Warn().Str(xglog.FieldSource, d).Msg("selecting a source that is not currently defined")
		}
	}

	if err := settings.Store(a.cfg.SettingsFile, descriptions); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%d source(s) selected\n", len(descriptions))
	return 0
}

func runUpdate(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("update", stderr)
	downloaded := downloadFlags{}
	fs.Var(downloaded, "downloaded", "catalog `name=path` of an already downloaded channel document (repeatable)")
	all := fs.Bool("all", false, "update every source instead of the stored selection")
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}

	for _, d := range a.refresh(a.selection(*all), downloaded) {
		_, _ = fmt.Fprintf(stdout, "%s\t%s\n", d.Name, strings.Join(d.URLs, " "))
	}
	return 0
}

func runResolve(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("resolve", stderr)
	normalize := fs.Bool("normalize", false, "print references uppercased without trailing colons")
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}
	if fs.NArg() != 2 {
		_, _ = fmt.Fprintln(stderr, "Usage: epgimport resolve [-config f] [-normalize] <catalog> <channel-id>")
		return 2
	}
	name, id := fs.Arg(0), fs.Arg(1)

	a.refresh(nil, nil)
	cat, ok := a.cache.Get(name)
	if !ok {
		_, _ = fmt.Fprintf(stderr, "Unknown catalog: %s\n", name)
		return 1
	}
	refs := cat.Lookup(id)
	if len(refs) == 0 {
		_, _ = fmt.Fprintf(stderr, "No references for %s in %s\n", id, name)
		return 1
	}
	for _, ref := range refs {
		if *normalize {
			ref = serviceref.Normalize(ref)
		}
		_, _ = fmt.Fprintln(stdout, ref)
	}
	return 0
}

func runFilter(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("filter", stderr)
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}

	f := filter.Compile(a.cfg.FilterFile)
	_, _ = fmt.Fprintf(stdout, "pattern: %s\n", f.Pattern())
	if f.IsFallback() {
		_, _ = fmt.Fprintln(stdout, "(fallback: no channel id is filtered)")
	}
	for _, id := range fs.Args() {
		if matched, ok := f.Match(id); ok {
			_, _ = fmt.Fprintf(stdout, "%s\tfiltered (%s)\n", id, matched)
		} else {
			_, _ = fmt.Fprintf(stdout, "%s\tkept\n", id)
		}
	}
	return 0
}

func runWatch(args []string, stdout, stderr io.Writer) int {
	fs, configPath := newFlagSet("watch", stderr)
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := func() {
		n := len(sources.Collect(a.dir.All(nil, false)))
		_, _ = fmt.Fprintf(stdout, "%d source(s) in %s\n", n, a.cfg.SourcesDir)
	}
	report()
	if err := a.dir.Watch(ctx, sources.DefaultSettle, report); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runServe(args []string, _, stderr io.Writer) int {
	fs, configPath := newFlagSet("serve", stderr)
	listen := fs.String("listen", "", "listen address (overrides listenAddr)")
	a, code := setup(fs, args, configPath, stderr)
	if a == nil {
		return code
	}
	addr := a.cfg.ListenAddr
	if *listen != "" {
		addr = *listen
	}
	if addr == "" {
		_, _ = fmt.Fprintln(stderr, "Error: no listen address (set listenAddr or -listen)")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, a, addr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// serve refreshes the selected catalogs, then runs the API and the directory
// watcher until ctx ends or either fails.
func serve(ctx context.Context, a *app, addr string) error {
	refresh := func() {
		pending := a.refresh(a.selection(false), nil)
		a.logger.Info().Int("pending_downloads", len(pending)).Int("catalogs", a.cache.Len()).Msg("catalogs refreshed")
	}
	refresh()

	srv := api.New(api.Deps{
		Directory:    a.dir,
		SettingsFile: a.cfg.SettingsFile,
		RequestLimit: a.cfg.APIRateLimit,
	})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	g.Go(func() error {
		if err := a.dir.Watch(gctx, sources.DefaultSettle, refresh); err != nil {
			a.logger.Warn().Err(err).Msg("source directory watch disabled")
		}
		return nil
	})
	return g.Wait()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"time"

	"github.com/ManuGH/epgimport/internal/filter"
	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/rs/zerolog"
)

// DefaultCustomChannelsPath is the operator's local override document.
const DefaultCustomChannelsPath = "/etc/epgimport/custom.channels.xml"

// Option configures a Catalog or a Cache. Catalogs created by a Cache inherit
// the cache's options.
type Option func(*env)

type env struct {
	now        func() time.Time
	filterPath string
	customPath string
	logger     zerolog.Logger
}

func newEnv(opts []Option) env {
	e := env{
		now:        time.Now,
		filterPath: filter.DefaultPath,
		customPath: DefaultCustomChannelsPath,
		logger:     xglog.WithComponent("catalog"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}
	return e
}

// WithClock replaces the wall clock used for download rate limiting.
func WithClock(now func() time.Time) Option {
	return func(e *env) {
		if now != nil {
			e.now = now
		}
	}
}

// WithFilterPath sets the channel id filter file consulted on every parse.
func WithFilterPath(path string) Option {
	return func(e *env) { e.filterPath = path }
}

// WithCustomChannelsPath sets the override document parsed first on every update.
// An empty path disables overrides.
func WithCustomChannelsPath(path string) Option {
	return func(e *env) { e.customPath = path }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *env) { e.logger = logger }
}

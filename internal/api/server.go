// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes a read-only HTTP view of the source directory and the
// catalog cache.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/sources"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators of a Server.
type Deps struct {
	Directory    *sources.Directory
	SettingsFile string
	// RequestLimit and Window bound requests per client IP. Zero values
	// select DefaultRequestLimit per minute.
	RequestLimit int
	Window       time.Duration
	Logger       *zerolog.Logger
}

// Server serves the HTTP API.
type Server struct {
	dir          *sources.Directory
	settingsFile string
	limit        int
	window       time.Duration
	logger       zerolog.Logger
}

// New returns a Server. It panics when deps.Directory is nil.
func New(deps Deps) *Server {
	if deps.Directory == nil {
		panic("api: nil source directory")
	}
	s := &Server{
		dir:          deps.Directory,
		settingsFile: deps.SettingsFile,
		limit:        deps.RequestLimit,
		window:       deps.Window,
		logger:       log.WithComponent("api"),
	}
	if s.limit <= 0 {
		s.limit = DefaultRequestLimit
	}
	if s.window <= 0 {
		s.window = time.Minute
	}
	if deps.Logger != nil {
		s.logger = *deps.Logger
	}
	return s
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(requestID)
	r.Use(observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.limit, s.window))
		r.Get("/sources", s.handleSources)
		r.Get("/catalogs", s.handleCatalogs)
		r.Get("/cache", s.handleCache)
		r.Get("/catalogs/{name}/channels/{id}", s.handleChannel)
		r.Get("/downloads", s.handleDownloads)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str(log.FieldEvent, "api.start").Str("addr", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Str(log.FieldEvent, "api.stop").Msg("HTTP API stopped")
	return nil
}

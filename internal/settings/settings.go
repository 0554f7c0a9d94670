// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package settings persists the operator's selection of EPG sources.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// DefaultPath keeps the selection next to the receiver's own settings so it is
// part of a settings backup.
const DefaultPath = "/etc/enigma2/epgimport.conf"

// Container is the stored document.
type Container struct {
	Sources []string `json:"sources"`
}

// Load returns the stored document. Any failure yields an empty source list;
// callers turn it into a selection with sources.NewSelection.
func Load(path string) Container {
	logger := xglog.WithComponent("settings")

	// #nosec G304 -- settings path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info().Err(err).Str(xglog.FieldPath, path).Msg("no stored source selection")
		return Container{Sources: []string{}}
	}

	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		logger.Info().Err(err).Str(xglog.FieldPath, path).Msg("stored source selection unreadable")
		return Container{Sources: []string{}}
	}
	if c.Sources == nil {
		c.Sources = []string{}
	}
	return c
}

// Store atomically replaces the stored selection.
func Store(path string, sources []string) error {
	logger := xglog.WithComponent("settings")
	if sources == nil {
		sources = []string{}
	}
	data, err := json.MarshalIndent(Container{Sources: sources}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending settings file: %w", err)
	}
	defer cleanup(pending, path, logger)

	if _, err := pending.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace settings file: %w", err)
	}
	logger.Debug().Str(xglog.FieldPath, path).Int("sources", len(sources)).Msg("source selection stored")
	return nil
}

type cleaner interface {
	Cleanup() error
}

// cleanup removes a pending file that was not committed. It is a no-op after
// a successful replace.
func cleanup(pending cleaner, path string, logger zerolog.Logger) {
	if err := pending.Cleanup(); err != nil {
		logger.Debug().Err(err).Str(xglog.FieldPath, path).Msg("cleanup pending settings file")
	}
}

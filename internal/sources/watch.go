// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Watch waits for a burst of file events to end.
const DefaultSettle = 500 * time.Millisecond

// Watch calls onChange whenever a source-definition or channel document in the
// directory is created, written, renamed or removed. Bursts of events within
// settle are reported once. Watch blocks until ctx is done.
func (d *Directory) Watch(ctx context.Context, settle time.Duration, onChange func()) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(d.Path); err != nil {
		return fmt.Errorf("watch directory %s: %w", d.Path, err)
	}

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			onChange()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !relevant(event) {
				continue
			}
			d.logger.Debug().
				Str(xglog.FieldPath, event.Name).
				Str("op", event.Op.String()).
				Msg("source directory changed")
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			d.logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, Suffix) || strings.Contains(name, ".channels.")
}

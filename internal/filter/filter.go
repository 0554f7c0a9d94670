// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package filter compiles the operator's channel-id filter file into a single
// matcher over lowercased channel identifiers.
//
// The file holds one regular expression per line. Lines starting with '#' and
// blank lines are ignored. Every line is compiled on its own so a bad line can be
// reported and dropped; the survivors are joined into one lowercased alternation.
// Whenever nothing usable remains the filter falls back to EmptyOnly, which only
// matches the empty identifier and therefore lets every real channel through.
package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	xglog "github.com/ManuGH/epgimport/internal/log"
	"github.com/ManuGH/epgimport/internal/metrics"
	"github.com/rs/zerolog"
)

// EmptyOnly is the fallback pattern.
const EmptyOnly = "^$"

// DefaultPath is where receivers keep the filter file.
const DefaultPath = "/etc/epgimport/channel_id_filter.conf"

// MaxLineBytes bounds a single filter line. Scanning stops at a longer line.
const MaxLineBytes = 1 << 20

// LineError describes a line that was dropped because it does not compile.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %q is not a valid regex: %v", e.Line, e.Text, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// Filter is a compiled identifier filter. The zero value is not usable; use
// Compile or Fallback.
type Filter struct {
	re       *regexp.Regexp
	pattern  string
	fallback bool
}

// Fallback returns the filter that only matches the empty identifier.
func Fallback() *Filter {
	return &Filter{re: anchored(EmptyOnly), pattern: EmptyOnly, fallback: true}
}

// Compile reads the filter file at path and compiles it. It never fails: every
// problem is logged and results in the fallback filter.
func Compile(path string) *Filter {
	return CompileWithLogger(path, xglog.WithComponent("filter"))
}

// CompileWithLogger is Compile with an explicit logger.
func CompileWithLogger(path string, logger zerolog.Logger) *Filter {
	// #nosec G304 -- the filter path comes from operator configuration
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info().Str(xglog.FieldPath, path).Msg("no channel id filter file found")
		} else {
			logger.Warn().Err(err).Str(xglog.FieldPath, path).Msg("channel id filter file unreadable")
		}
		metrics.RecordFilterFallback("missing")
		return Fallback()
	}
	defer func() { _ = f.Close() }()

	return compileReader(f, logger)
}

func compileReader(r io.Reader, logger zerolog.Logger) *Filter {
	pattern, dropped, err := compileLines(r)
	for _, le := range dropped {
		logger.Warn().
			Int(xglog.FieldLine, le.Line).
			Str(xglog.FieldPattern, le.Text).
			Err(le.Err).
			Msg("invalid regex in channel id filter, line ignored")
	}
	if err != nil {
		logger.Warn().Err(err).Msg("reading channel id filter failed, remaining lines skipped")
	}

	if pattern == "" {
		metrics.RecordFilterFallback("empty")
		return Fallback()
	}

	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldPattern, pattern).Msg("combined channel id filter does not compile")
		metrics.RecordFilterFallback("compile")
		return Fallback()
	}

	logger.Info().Str(xglog.FieldPattern, pattern).Msg("channel id filter compiled")
	return &Filter{re: re, pattern: pattern}
}

// compileLines returns the lowercased alternation of every valid line together
// with the lines it had to drop. A read error, or a line longer than
// MaxLineBytes, stops scanning; lines read so far are kept.
func compileLines(r io.Reader) (string, []LineError, error) {
	var (
		parts   []string
		dropped []LineError
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if strings.HasPrefix(raw, "#") {
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			// an empty alternative would match every identifier
			continue
		}
		if _, err := regexp.Compile(line); err != nil {
			dropped = append(dropped, LineError{Line: lineNo, Text: line, Err: err})
			continue
		}
		parts = append(parts, line)
	}

	pattern := strings.ToLower(strings.Join(parts, "|"))
	if err := sc.Err(); err != nil {
		return pattern, dropped, fmt.Errorf("after line %d: %w", lineNo, err)
	}
	return pattern, dropped, nil
}

// Match reports whether id matches the filter at its start. The matched text is
// returned as well; it is empty when only the empty alternative matched.
func (f *Filter) Match(id string) (string, bool) {
	loc := f.re.FindStringIndex(id)
	if loc == nil {
		return "", false
	}
	return id[loc[0]:loc[1]], true
}

// Pattern returns the combined pattern, or EmptyOnly for the fallback filter.
func (f *Filter) Pattern() string {
	return f.pattern
}

// IsFallback reports whether the filter fell back to EmptyOnly.
func (f *Filter) IsFallback() bool {
	return f.fallback
}

func anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile("^(?:" + pattern + ")")
}

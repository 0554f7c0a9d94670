// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ManuGH/epgimport/internal/log"
	"github.com/rs/zerolog"
)

// Environment keys. Each overrides the matching YAML field.
const (
	EnvSourcesDir         = "EPGIMPORT_SOURCES_DIR"
	EnvSettingsFile       = "EPGIMPORT_SETTINGS_FILE"
	EnvFilterFile         = "EPGIMPORT_FILTER_FILE"
	EnvCustomChannelsFile = "EPGIMPORT_CUSTOM_CHANNELS_FILE"
	EnvServiceTypes       = "EPGIMPORT_SERVICE_TYPES"
	EnvAllowIPTV          = "EPGIMPORT_ALLOW_IPTV"
	EnvLogLevel           = "EPGIMPORT_LOG_LEVEL"
	EnvLogService         = "EPGIMPORT_LOG_SERVICE"
	EnvListenAddr         = "EPGIMPORT_LISTEN_ADDR"
	EnvAPIRateLimit       = "EPGIMPORT_API_RATE_LIMIT"
)

// lookup returns the value of key when it is set and non-empty, logging
// which source won.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return "", false
	}
	return v, true
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseInt reads an integer from environment variable or returns default value.
// It falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		logger.Debug().Str("key", key).Bool("value", true).Str("source", "environment").Msg("using environment variable")
		return true
	case "false", "0", "no":
		logger.Debug().Str("key", key).Bool("value", false).Str("source", "environment").Msg("using environment variable")
		return false
	}
	logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).
		Msg("invalid boolean in environment variable, using default")
	return defaultValue
}

// ParseIntList reads a comma-separated integer list. Any invalid element
// discards the whole value in favour of the default.
func ParseIntList(key string, defaultValue []int) []int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	var out []int
	for part := range strings.SplitSeq(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			logger.Warn().Str("key", key).Str("value", v).Ints("default", defaultValue).
				Msg("invalid integer list in environment variable, using default")
			return defaultValue
		}
		out = append(out, i)
	}
	logger.Debug().Str("key", key).Ints("value", out).Str("source", "environment").Msg("using environment variable")
	return out
}

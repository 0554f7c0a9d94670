// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Validate rejects empty paths, unknown log levels, negative service types,
// non-positive rate limits and malformed listen addresses. All failures are joined and wrap ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	fail := func(field, msg string, value any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s (got %v)", ErrInvalidConfig, field, msg, value))
	}

	for field, v := range map[string]string{
		"sourcesDir":   cfg.SourcesDir,
		"settingsFile": cfg.SettingsFile,
		"filterFile":   cfg.FilterFile,
	} {
		if strings.TrimSpace(v) == "" {
			fail(field, "must not be empty", v)
		}
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil || cfg.LogLevel == "" {
		fail("logLevel", "unknown log level", cfg.LogLevel)
	}

	for _, t := range cfg.ServiceTypes {
		if t < 0 {
			fail("serviceTypes", "must not be negative", t)
		}
	}

	if cfg.APIRateLimit <= 0 {
		fail("apiRateLimit", "must be positive", cfg.APIRateLimit)
	}

	if cfg.ListenAddr != "" {
		if err := validateListenAddr(cfg.ListenAddr); err != nil {
			fail("listenAddr", err.Error(), cfg.ListenAddr)
		}
	}

	return errors.Join(errs...)
}

func validateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " /") {
		return fmt.Errorf("invalid host %q", host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

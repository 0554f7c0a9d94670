// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the epgimport configuration.
//
// Precedence is ENV > file > defaults. The YAML file is parsed strictly:
// unknown keys and multiple documents are rejected. Environment variables use
// the EPGIMPORT_ prefix, for example EPGIMPORT_SOURCES_DIR or
// EPGIMPORT_SERVICE_TYPES=1,17,25.
package config

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"slices"

	"github.com/ManuGH/epgimport/internal/api"
	"github.com/ManuGH/epgimport/internal/catalog"
	"github.com/ManuGH/epgimport/internal/filter"
	"github.com/ManuGH/epgimport/internal/serviceref"
	"github.com/ManuGH/epgimport/internal/settings"
	"github.com/ManuGH/epgimport/internal/sources"
)

// FileConfig is the on-disk YAML shape. Pointer fields distinguish "unset"
// from the zero value.
type FileConfig struct {
	SourcesDir         string `yaml:"sourcesDir,omitempty"`
	SettingsFile       string `yaml:"settingsFile,omitempty"`
	FilterFile         string `yaml:"filterFile,omitempty"`
	CustomChannelsFile string `yaml:"customChannelsFile,omitempty"`
	ServiceTypes       []int  `yaml:"serviceTypes,omitempty"`
	AllowIPTV          *bool  `yaml:"allowIPTV,omitempty"`
	LogLevel           string `yaml:"logLevel,omitempty"`
	LogService         string `yaml:"logService,omitempty"`
	ListenAddr         string `yaml:"listenAddr,omitempty"`
	APIRateLimit       int    `yaml:"apiRateLimit,omitempty"`
}

// AppConfig is the effective configuration after merging defaults, file and environment.
type AppConfig struct {
	SourcesDir         string
	SettingsFile       string
	FilterFile         string
	CustomChannelsFile string
	ServiceTypes       []int
	AllowIPTV          bool
	LogLevel           string
	LogService         string
	ListenAddr         string
	// APIRateLimit is the number of API requests a client IP may make per minute.
	APIRateLimit int
	Version      string
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() AppConfig {
	return AppConfig{
		SourcesDir:         sources.DefaultDir,
		SettingsFile:       settings.DefaultPath,
		FilterFile:         filter.DefaultPath,
		CustomChannelsFile: catalog.DefaultCustomChannelsPath,
		ServiceTypes:       slices.Clone(serviceref.DefaultServiceTypes),
		AllowIPTV:          true,
		LogLevel:           "info",
		LogService:         "epgimport",
		APIRateLimit:       api.DefaultRequestLimit,
	}
}

// APIEnabled reports whether the HTTP surface should be started.
func (c AppConfig) APIEnabled() bool {
	return c.ListenAddr != ""
}

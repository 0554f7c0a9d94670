// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty configPath skips the file.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInts(key string, defaultVal []int) []int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseIntList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFile(cfg *AppConfig, src *FileConfig) {
	setString(&cfg.SourcesDir, src.SourcesDir)
	setString(&cfg.SettingsFile, src.SettingsFile)
	setString(&cfg.FilterFile, src.FilterFile)
	setString(&cfg.CustomChannelsFile, src.CustomChannelsFile)
	setString(&cfg.LogLevel, src.LogLevel)
	setString(&cfg.LogService, src.LogService)
	setString(&cfg.ListenAddr, src.ListenAddr)
	if src.ServiceTypes != nil {
		cfg.ServiceTypes = src.ServiceTypes
	}
	if src.APIRateLimit != 0 {
		cfg.APIRateLimit = src.APIRateLimit
	}
	if src.AllowIPTV != nil {
		cfg.AllowIPTV = *src.AllowIPTV
	}
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.SourcesDir = l.envString(EnvSourcesDir, cfg.SourcesDir)
	cfg.SettingsFile = l.envString(EnvSettingsFile, cfg.SettingsFile)
	cfg.FilterFile = l.envString(EnvFilterFile, cfg.FilterFile)
	cfg.CustomChannelsFile = l.envString(EnvCustomChannelsFile, cfg.CustomChannelsFile)
	cfg.ServiceTypes = l.envInts(EnvServiceTypes, cfg.ServiceTypes)
	cfg.AllowIPTV = l.envBool(EnvAllowIPTV, cfg.AllowIPTV)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.ListenAddr = l.envString(EnvListenAddr, cfg.ListenAddr)
	cfg.APIRateLimit = l.envInt(EnvAPIRateLimit, cfg.APIRateLimit)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

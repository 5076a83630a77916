// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the download engine's tunables from a single
// YAML file specified by the SWIFT_XET_CONFIG environment variable or
// a --config flag passed to the command. There is no automatic file
// discovery beyond that: if neither is set, Load falls back to
// Default rather than searching well-known paths.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables for the download engine. Every
// field has a documented default applied by Default and preserved
// for any field the file omits.
type Config struct {
	MaxConcurrentFetches int      `yaml:"max_concurrent_fetches"`
	DecodeBufferSlots    int      `yaml:"decode_buffer_slots"`
	ConnectTimeout       Duration `yaml:"connect_timeout"`
	ReadTimeout          Duration `yaml:"read_timeout"`
	TokenSafetyWindow    Duration `yaml:"token_safety_window"`
	InsecureAllowHTTP    bool     `yaml:"insecure_allow_http"`
	HTTPClientPoolSize   int      `yaml:"http_client_pool_size"`
}

// Default returns the tunables recommended by the protocol
// description when no config file is supplied.
func Default() *Config {
	return &Config{
		MaxConcurrentFetches: 128,
		DecodeBufferSlots:    16,
		ConnectTimeout:       Duration(60 * time.Second),
		ReadTimeout:          Duration(120 * time.Second),
		TokenSafetyWindow:    Duration(60 * time.Second),
		InsecureAllowHTTP:    false,
		HTTPClientPoolSize:   4,
	}
}

// Load loads configuration from the path named by the SWIFT_XET_CONFIG
// environment variable. If the variable is unset, it returns Default
// rather than failing, so the CLI works with no config file at all.
func Load() (*Config, error) {
	path := os.Getenv("SWIFT_XET_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, starting
// from Default and overlaying whatever fields the file sets.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

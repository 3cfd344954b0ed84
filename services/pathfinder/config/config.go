// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads service configuration from an optional YAML
// file plus environment overrides. Defaults are complete: the service
// runs with no file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the wikipath service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	API      APIConfig      `yaml:"api"`
	Search   SearchConfig   `yaml:"search"`
	Captions CaptionsConfig `yaml:"captions"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig configures the durable link/verdict cache.
type CacheConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// APIConfig configures the remote MediaWiki client.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url"`
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// SearchConfig tunes the engine's ceilings and deadlines.
type SearchConfig struct {
	MaxHops           int `yaml:"max_hops"`
	MaxNodes          int `yaml:"max_nodes"`
	MaxSteps          int `yaml:"max_steps"`
	LevelBatch        int `yaml:"level_batch"`
	MaxDegree         int `yaml:"max_degree"`
	MaxCandidates     int `yaml:"max_candidates"`
	ConcurrentFetches int `yaml:"concurrent_fetches"`
	SoftBudgetSeconds int `yaml:"soft_budget_seconds"`
	HardBudgetSeconds int `yaml:"hard_budget_seconds"`
	EarlyExitTarget   int `yaml:"early_exit_target"`
}

// CaptionsConfig configures the optional edge captioner. The API key is
// taken from the OPENAI_API_KEY environment variable, never from the
// file.
type CaptionsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Default returns the complete default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			Path: "~/.wikipath/cache",
		},
		API: APIConfig{
			BaseURL:           "https://en.wikipedia.org/w/api.php",
			UserAgent:         "wikipath/1.0 (https://github.com/wikipath/wikipath)",
			RequestsPerSecond: 20,
			TimeoutSeconds:    12,
		},
		Search: SearchConfig{
			MaxHops:           6,
			MaxNodes:          3000,
			MaxSteps:          200,
			LevelBatch:        20,
			MaxDegree:         25,
			MaxCandidates:     150,
			ConcurrentFetches: 15,
			SoftBudgetSeconds: 98,
			HardBudgetSeconds: 100,
			EarlyExitTarget:   25,
		},
		Captions: CaptionsConfig{
			Enabled: true,
			Model:   "gpt-4o-mini",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (if path is non-empty and the file exists), then environment
// overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Missing file means defaults.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WIKIPATH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("WIKIPATH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WIKIPATH_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if v := os.Getenv("WIKIPATH_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("WIKIPATH_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("WIKIPATH_HARD_BUDGET_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.HardBudgetSeconds = n
		}
	}
	if v := os.Getenv("WIKIPATH_SOFT_BUDGET_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.SoftBudgetSeconds = n
		}
	}
	if v := os.Getenv("WIKIPATH_CONCURRENT_FETCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.ConcurrentFetches = n
		}
	}
}

// Validate checks cross-field constraints and reports the first
// violation.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr must not be empty")
	}
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url must not be empty")
	}
	if c.Search.HardBudgetSeconds <= 0 {
		return errors.New("config: search.hard_budget_seconds must be positive")
	}
	if c.Search.SoftBudgetSeconds <= 0 || c.Search.SoftBudgetSeconds >= c.Search.HardBudgetSeconds {
		return fmt.Errorf("config: search.soft_budget_seconds (%d) must be positive and below the hard budget (%d)",
			c.Search.SoftBudgetSeconds, c.Search.HardBudgetSeconds)
	}
	if c.Search.ConcurrentFetches <= 0 {
		return errors.New("config: search.concurrent_fetches must be positive")
	}
	if c.Search.MaxHops <= 0 || c.Search.MaxNodes <= 0 || c.Search.MaxSteps <= 0 {
		return errors.New("config: search ceilings must be positive")
	}
	if !c.Cache.InMemory && c.Cache.Path == "" {
		return errors.New("config: cache.path required unless cache.in_memory is set")
	}
	return nil
}

// CachePath returns the cache directory with a leading ~ expanded to
// the user's home directory. The default path uses ~, and the store's
// MkdirAll would otherwise create a literal "~" directory.
func (c *Config) CachePath() string {
	path := c.Cache.Path
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// SoftBudget returns the soft deadline as a duration.
func (c *Config) SoftBudget() time.Duration {
	return time.Duration(c.Search.SoftBudgetSeconds) * time.Second
}

// HardBudget returns the hard deadline as a duration.
func (c *Config) HardBudget() time.Duration {
	return time.Duration(c.Search.HardBudgetSeconds) * time.Second
}

// APITimeout returns the per-request HTTP timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CaptionsAPIKey reads the caption API key from the environment.
// Empty disables captioning regardless of Captions.Enabled.
func (c *Config) CaptionsAPIKey() string {
	if !c.Captions.Enabled {
		return ""
	}
	return os.Getenv("OPENAI_API_KEY")
}

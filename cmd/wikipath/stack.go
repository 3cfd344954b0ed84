// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wikipath/wikipath/pkg/logging"
	"github.com/wikipath/wikipath/services/pathfinder/cache"
	"github.com/wikipath/wikipath/services/pathfinder/captions"
	"github.com/wikipath/wikipath/services/pathfinder/config"
	"github.com/wikipath/wikipath/services/pathfinder/engine"
	"github.com/wikipath/wikipath/services/pathfinder/fetch"
	"github.com/wikipath/wikipath/services/pathfinder/limiter"
	"github.com/wikipath/wikipath/services/pathfinder/observability"
	"github.com/wikipath/wikipath/services/pathfinder/person"
	"github.com/wikipath/wikipath/services/pathfinder/wiki"
)

// stack is the assembled search pipeline shared by the serve and
// search commands.
type stack struct {
	cfg       *config.Config
	logger    *logging.Logger
	store     *cache.Store
	client    *wiki.Client
	engine    *engine.Engine
	captioner *captions.Captioner
	metrics   *observability.SearchMetrics
}

// buildStack loads configuration and wires every component. quiet
// suppresses stderr logging for CLI use.
func buildStack(quiet bool) (*stack, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagInMemory {
		cfg.Cache.InMemory = true
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "wikipath",
		JSON:    cfg.Logging.JSON,
		Quiet:   quiet,
	})

	var store *cache.Store
	if cfg.Cache.InMemory {
		store, err = cache.OpenInMemory()
	} else {
		store, err = cache.Open(cache.Config{
			Path:   cfg.CachePath(),
			Logger: logger.Slog(),
		})
	}
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	client := wiki.New(wiki.Config{
		BaseURL:           cfg.API.BaseURL,
		UserAgent:         cfg.API.UserAgent,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Timeout:           cfg.APITimeout(),
		Logger:            logger.With("component", "wiki"),
	})

	metrics := observability.NewSearchMetrics(prometheus.DefaultRegisterer)

	gate := limiter.New(cfg.Search.ConcurrentFetches)
	fetcher := fetch.New(client, store, gate, fetch.Config{
		EarlyExitTarget: cfg.Search.EarlyExitTarget,
		Logger:          logger.With("component", "fetch"),
		Metrics:         metrics,
	})
	verifier := person.NewVerifier(client, store, logger.With("component", "person")).
		WithMetrics(metrics)

	eng := engine.New(fetcher, verifier, engine.Config{
		MaxHops:       cfg.Search.MaxHops,
		MaxNodes:      cfg.Search.MaxNodes,
		MaxSteps:      cfg.Search.MaxSteps,
		LevelBatch:    cfg.Search.LevelBatch,
		MaxDegree:     cfg.Search.MaxDegree,
		MaxCandidates: cfg.Search.MaxCandidates,
		SoftBudget:    cfg.SoftBudget(),
		HardBudget:    cfg.HardBudget(),
		Logger:        logger.With("component", "engine"),
	})

	captioner := captions.New(captions.Config{
		APIKey:  cfg.CaptionsAPIKey(),
		BaseURL: cfg.Captions.BaseURL,
		Model:   cfg.Captions.Model,
		Logger:  logger.With("component", "captions"),
	})

	return &stack{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		client:    client,
		engine:    eng,
		captioner: captioner,
		metrics:   metrics,
	}, nil
}

// close releases the cache and the log file.
func (s *stack) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("cache close failed", "error", err.Error())
	}
	s.logger.Close()
}

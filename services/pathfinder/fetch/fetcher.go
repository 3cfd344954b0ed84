// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fetch retrieves a page's link neighborhood, cache-first and
// behind the shared admission gate. Pagination stops early once enough
// plausible person candidates have accumulated, which bounds API cost
// on hub pages with thousands of links.
package fetch

import (
	"context"
	"fmt"

	"github.com/wikipath/wikipath/pkg/logging"
	"github.com/wikipath/wikipath/services/pathfinder/cache"
	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
	"github.com/wikipath/wikipath/services/pathfinder/limiter"
	"github.com/wikipath/wikipath/services/pathfinder/norm"
	"github.com/wikipath/wikipath/services/pathfinder/person"
)

const (
	// defaultEarlyExitTarget stops pagination once this many plausible
	// person candidates have been gathered from one page.
	defaultEarlyExitTarget = 25

	// defaultMaxPages bounds pagination per node regardless of the
	// early-exit count.
	defaultMaxPages = 2
)

// LinkSource provides one page of links or backlinks per call.
// *wiki.Client satisfies it.
type LinkSource interface {
	Links(ctx context.Context, title, cont string) ([]string, string, error)
	Backlinks(ctx context.Context, title, cont string) ([]string, string, error)
}

// Metrics receives fetch and cache observations.
// *observability.SearchMetrics satisfies it.
type Metrics interface {
	ObserveFetch(direction string)
	ObserveCacheLookup(kind, result string)
}

// Config configures a Fetcher. Zero values select the defaults.
type Config struct {
	EarlyExitTarget int
	MaxPages        int
	Logger          *logging.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics Metrics
}

// Fetcher resolves a page's neighbors in one search direction,
// consulting the durable cache before the remote source and caching
// every successful fetch.
type Fetcher struct {
	source    LinkSource
	store     *cache.Store
	gate      *limiter.Limiter
	logger    *logging.Logger
	metrics   Metrics
	earlyExit int
	maxPages  int
}

type noopMetrics struct{}

func (noopMetrics) ObserveFetch(string)               {}
func (noopMetrics) ObserveCacheLookup(string, string) {}

// New creates a Fetcher. store and gate are required.
func New(source LinkSource, store *cache.Store, gate *limiter.Limiter, cfg Config) *Fetcher {
	if cfg.EarlyExitTarget <= 0 {
		cfg.EarlyExitTarget = defaultEarlyExitTarget
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	return &Fetcher{
		source:    source,
		store:     store,
		gate:      gate,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		earlyExit: cfg.EarlyExitTarget,
		maxPages:  cfg.MaxPages,
	}
}

// Candidates returns the raw neighbor titles of title in the given
// direction: outgoing links for Forward, backlinks for Backward.
//
// A cache hit returns immediately without touching the limiter. On a
// miss it holds an admission slot for the whole paginated fetch and
// stores the result before returning. A persistent remote failure
// yields an empty, uncached result so the node becomes a dead end
// rather than a search failure; only cancellation is returned as an
// error.
func (f *Fetcher) Candidates(ctx context.Context, title string, dir datatypes.Direction) ([]string, error) {
	kind := cache.KindLinks
	if dir == datatypes.Backward {
		kind = cache.KindBacklinks
	}
	key := norm.Key(title)

	if titles, found, err := f.store.GetTitles(kind, key); err == nil && found {
		f.metrics.ObserveCacheLookup(kind.String(), "hit")
		return titles, nil
	}
	f.metrics.ObserveCacheLookup(kind.String(), "miss")

	if err := f.gate.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	defer f.gate.Release()

	f.metrics.ObserveFetch(dir.String())
	titles, err := f.paginate(ctx, title, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		f.logger.Warn("fetch failed, treating node as dead end",
			"title", title,
			"direction", dir.String(),
			"error", err.Error(),
		)
		return nil, nil
	}

	if err := f.store.PutTitles(kind, key, titles); err != nil {
		f.logger.Warn("cache write failed", "title", title, "error", err.Error())
	}
	return titles, nil
}

func (f *Fetcher) paginate(ctx context.Context, title string, dir datatypes.Direction) ([]string, error) {
	var (
		all       []string
		plausible int
		cont      string
	)
	for page := 0; page < f.maxPages; page++ {
		var (
			links []string
			next  string
			err   error
		)
		if dir == datatypes.Forward {
			links, next, err = f.source.Links(ctx, title, cont)
		} else {
			links, next, err = f.source.Backlinks(ctx, title, cont)
		}
		if err != nil {
			return nil, err
		}

		all = append(all, links...)
		plausible += len(person.FilterPlausible(links))

		if plausible >= f.earlyExit || next == "" {
			break
		}
		cont = next
	}
	return all, nil
}

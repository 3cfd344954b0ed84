// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package person

import (
	"context"

	"github.com/wikipath/wikipath/pkg/logging"
	"github.com/wikipath/wikipath/services/pathfinder/norm"
)

const (
	// defaultBatchSize is the number of titles per category request.
	defaultBatchSize = 10

	// fallbackKeep is how many unverified non-VIP candidates survive
	// when verification degrades. Degrading must never return an empty
	// set, or a timeout near the end of a search would orphan whole
	// frontiers.
	fallbackKeep = 15

	// errorKeep is how many titles of a single failed batch are kept
	// unverified.
	errorKeep = 5
)

// CategorySource provides category memberships for a batch of titles.
// *wiki.Client satisfies it.
type CategorySource interface {
	Categories(ctx context.Context, titles []string) (map[string][]string, error)
}

// VerdictCache stores person verdicts durably. *cache.Store satisfies it.
type VerdictCache interface {
	GetVerdict(key norm.PageKey) (verdict bool, found bool, err error)
	PutVerdict(key norm.PageKey, verdict bool) error
}

// Metrics receives verification observations.
// *observability.SearchMetrics satisfies it.
type Metrics interface {
	ObserveVerdict(human bool, source string)
	ObserveCacheLookup(kind, result string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveVerdict(bool, string)       {}
func (noopMetrics) ObserveCacheLookup(string, string) {}

// Verifier confirms person candidates against article categories,
// consulting the VIP allowlist and the verdict cache before the remote
// source, and degrading to unverified candidates when the deadline or
// the remote API gives out.
type Verifier struct {
	source    CategorySource
	cache     VerdictCache
	logger    *logging.Logger
	metrics   Metrics
	batchSize int
}

// NewVerifier creates a Verifier. cache may be nil (verdicts are then
// only as durable as the remote answers).
func NewVerifier(source CategorySource, cache VerdictCache, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Verifier{
		source:    source,
		cache:     cache,
		logger:    logger,
		metrics:   noopMetrics{},
		batchSize: defaultBatchSize,
	}
}

// WithMetrics attaches a metrics sink and returns v.
func (v *Verifier) WithMetrics(m Metrics) *Verifier {
	if m != nil {
		v.metrics = m
	}
	return v
}

// FilterHumans returns the subset of titles confirmed as people, in the
// order: VIPs, cache hits, then freshly verified titles. It never
// returns an error: when ctx expires or a batch fails persistently, the
// affected titles degrade to the VIP members plus the first few
// unverified candidates in fetch order.
func (v *Verifier) FilterHumans(ctx context.Context, titles []string) []string {
	if len(titles) == 0 {
		return nil
	}

	vips := make([]string, 0, len(titles))
	remaining := make([]string, 0, len(titles))
	for _, title := range titles {
		if IsVIP(title) {
			vips = append(vips, title)
			v.metrics.ObserveVerdict(true, "vip")
		} else {
			remaining = append(remaining, title)
		}
	}

	if ctx.Err() != nil {
		return v.degrade(vips, remaining)
	}

	humans := vips
	uncached := make([]string, 0, len(remaining))
	for _, title := range remaining {
		verdict, found := v.cachedVerdict(title)
		switch {
		case !found:
			v.metrics.ObserveCacheLookup("verdicts", "miss")
			uncached = append(uncached, title)
		case verdict:
			v.metrics.ObserveCacheLookup("verdicts", "hit")
			v.metrics.ObserveVerdict(true, "cache")
			humans = append(humans, title)
		default:
			v.metrics.ObserveCacheLookup("verdicts", "hit")
			v.metrics.ObserveVerdict(false, "cache")
		}
	}

	for start := 0; start < len(uncached); start += v.batchSize {
		end := min(start+v.batchSize, len(uncached))
		batch := uncached[start:end]

		if ctx.Err() != nil {
			v.logger.Warn("verification deadline hit, degrading",
				"verified", len(humans),
				"pending", len(uncached)-start,
			)
			return v.degrade(humans, uncached[start:])
		}

		cats, err := v.source.Categories(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return v.degrade(humans, uncached[start:])
			}
			v.logger.Warn("category batch failed, keeping subset unverified",
				"batch_size", len(batch),
				"error", err.Error(),
			)
			humans = append(humans, batch[:min(errorKeep, len(batch))]...)
			continue
		}

		for _, title := range batch {
			pageCats, ok := cats[title]
			isHuman := ok && IsHuman(pageCats)
			v.storeVerdict(title, isHuman)
			v.metrics.ObserveVerdict(isHuman, "api")
			if isHuman {
				humans = append(humans, title)
			}
		}
	}

	return humans
}

// degrade implements the timeout fallback: everything confirmed so far
// plus the first fallbackKeep unchecked candidates.
func (v *Verifier) degrade(confirmed, unchecked []string) []string {
	return append(confirmed, unchecked[:min(fallbackKeep, len(unchecked))]...)
}

func (v *Verifier) cachedVerdict(title string) (verdict, found bool) {
	if v.cache == nil {
		return false, false
	}
	verdict, found, err := v.cache.GetVerdict(norm.Key(title))
	if err != nil {
		return false, false
	}
	return verdict, found
}

func (v *Verifier) storeVerdict(title string, verdict bool) {
	if v.cache == nil {
		return
	}
	if err := v.cache.PutVerdict(norm.Key(title), verdict); err != nil {
		v.logger.Warn("verdict cache write failed", "title", title, "error", err.Error())
	}
}

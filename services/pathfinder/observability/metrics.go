// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the search
// service.
//
// Metrics cover search outcomes and durations, remote fetch volume,
// cache effectiveness, and person-verification verdicts. They are
// exposed via the /metrics endpoint; all operations are thread-safe
// through Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "wikipath"
	searchSubsystem  = "search"
)

// SearchMetrics holds all Prometheus metrics for the search pipeline.
// Initialize once at startup via NewSearchMetrics.
type SearchMetrics struct {
	// SearchesTotal counts finished searches.
	// Labels: outcome (path_found, no_path_found, timed_out, error)
	SearchesTotal *prometheus.CounterVec

	// SearchDurationSeconds observes wall-clock search duration by
	// outcome.
	SearchDurationSeconds *prometheus.HistogramVec

	// PathHops observes the edge count of found paths.
	PathHops prometheus.Histogram

	// NodesVisited observes combined parent-map size per search.
	NodesVisited prometheus.Histogram

	// ActiveSearches gauges searches currently running.
	ActiveSearches prometheus.Gauge

	// FetchesTotal counts remote link fetches by direction.
	// Labels: direction (forward, backward)
	FetchesTotal *prometheus.CounterVec

	// CacheLookupsTotal counts cache lookups by kind and result.
	// Labels: kind (links, backlinks, verdicts), result (hit, miss)
	CacheLookupsTotal *prometheus.CounterVec

	// VerdictsTotal counts person-verification verdicts.
	// Labels: verdict (human, not_human), source (vip, cache, api)
	VerdictsTotal *prometheus.CounterVec
}

// NewSearchMetrics registers and returns the search metrics on the
// given registerer. Pass prometheus.DefaultRegisterer in production and
// a fresh registry in tests.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	factory := promauto.With(reg)
	return &SearchMetrics{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "searches_total",
				Help:      "Finished searches by outcome.",
			},
			[]string{"outcome"},
		),
		SearchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "duration_seconds",
				Help:      "Wall-clock search duration by outcome.",
				Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 80, 100, 120},
			},
			[]string{"outcome"},
		),
		PathHops: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "path_hops",
				Help:      "Edge count of found paths.",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 12},
			},
		),
		NodesVisited: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "nodes_visited",
				Help:      "Combined visited-map size per search.",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
			},
		),
		ActiveSearches: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "active",
				Help:      "Searches currently running.",
			},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "fetches_total",
				Help:      "Remote link fetches by direction.",
			},
			[]string{"direction"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by kind and result.",
			},
			[]string{"kind", "result"},
		),
		VerdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "verdicts_total",
				Help:      "Person-verification verdicts by value and source.",
			},
			[]string{"verdict", "source"},
		),
	}
}

// ObserveSearch records one finished search.
func (m *SearchMetrics) ObserveSearch(outcome string, durationSeconds float64, hops, visited int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDurationSeconds.WithLabelValues(outcome).Observe(durationSeconds)
	m.NodesVisited.Observe(float64(visited))
	if hops > 0 {
		m.PathHops.Observe(float64(hops))
	}
}

// ObserveFetch records one remote link fetch.
func (m *SearchMetrics) ObserveFetch(direction string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(direction).Inc()
}

// ObserveCacheLookup records one cache lookup. result is "hit" or
// "miss".
func (m *SearchMetrics) ObserveCacheLookup(kind, result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveVerdict records one person-verification verdict.
func (m *SearchMetrics) ObserveVerdict(human bool, source string) {
	if m == nil {
		return
	}
	verdict := "not_human"
	if human {
		verdict = "human"
	}
	m.VerdictsTotal.WithLabelValues(verdict, source).Inc()
}

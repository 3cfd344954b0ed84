// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikipath/wikipath/services/pathfinder/cache"
	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
	"github.com/wikipath/wikipath/services/pathfinder/limiter"
)

// pagedSource serves scripted pages of links and counts calls.
type pagedSource struct {
	// pages maps title -> ordered result pages.
	pages     map[string][]page
	links     int
	backlinks int
	err       error
}

type page struct {
	titles []string
	cont   string
}

func (s *pagedSource) serve(title, cont string) ([]string, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	pages := s.pages[title]
	idx := 0
	if cont != "" {
		for i, p := range pages[:len(pages)-1] {
			if p.cont == cont {
				idx = i + 1
				break
			}
		}
	}
	if idx >= len(pages) {
		return nil, "", nil
	}
	return pages[idx].titles, pages[idx].cont, nil
}

func (s *pagedSource) Links(_ context.Context, title, cont string) ([]string, string, error) {
	s.links++
	return s.serve(title, cont)
}

func (s *pagedSource) Backlinks(_ context.Context, title, cont string) ([]string, string, error) {
	s.backlinks++
	return s.serve(title, cont)
}

func newFetcher(t *testing.T, source *pagedSource, cfg Config) (*Fetcher, *cache.Store) {
	t.Helper()
	store, err := cache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(source, store, limiter.New(4), cfg), store
}

func manyPeople(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Person %02d", i)
	}
	return out
}

func TestCandidatesForwardUsesLinks(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Albert Einstein": {{titles: []string{"Mileva Marić", "Physics"}}},
	}}
	f, _ := newFetcher(t, source, Config{})

	titles, err := f.Candidates(context.Background(), "Albert Einstein", datatypes.Forward)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mileva Marić", "Physics"}, titles)
	assert.Equal(t, 1, source.links)
	assert.Zero(t, source.backlinks)
}

func TestCandidatesBackwardUsesBacklinks(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Physics": {{titles: []string{"Isaac Newton"}}},
	}}
	f, _ := newFetcher(t, source, Config{})

	titles, err := f.Candidates(context.Background(), "Physics", datatypes.Backward)
	require.NoError(t, err)
	assert.Equal(t, []string{"Isaac Newton"}, titles)
	assert.Equal(t, 1, source.backlinks)
	assert.Zero(t, source.links)
}

func TestCandidatesCacheHitSkipsRemote(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Albert Einstein": {{titles: []string{"Mileva Marić"}}},
	}}
	f, _ := newFetcher(t, source, Config{})

	_, err := f.Candidates(context.Background(), "Albert Einstein", datatypes.Forward)
	require.NoError(t, err)

	titles, err := f.Candidates(context.Background(), "Albert Einstein", datatypes.Forward)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mileva Marić"}, titles)
	assert.Equal(t, 1, source.links, "second call must be served from cache")
}

func TestCandidatesCacheIsPerDirection(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Physics": {{titles: []string{"Isaac Newton"}}},
	}}
	f, _ := newFetcher(t, source, Config{})

	_, err := f.Candidates(context.Background(), "Physics", datatypes.Forward)
	require.NoError(t, err)
	_, err = f.Candidates(context.Background(), "Physics", datatypes.Backward)
	require.NoError(t, err)
	assert.Equal(t, 1, source.links)
	assert.Equal(t, 1, source.backlinks)
}

func TestCandidatesEarlyExitStopsPagination(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Hub": {
			{titles: manyPeople(30), cont: "p2"},
			{titles: manyPeople(30)},
		},
	}}
	f, _ := newFetcher(t, source, Config{EarlyExitTarget: 25})

	titles, err := f.Candidates(context.Background(), "Hub", datatypes.Forward)
	require.NoError(t, err)
	assert.Len(t, titles, 30)
	assert.Equal(t, 1, source.links, "first page already met the early-exit target")
}

func TestCandidatesPaginatesUntilTarget(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Sparse": {
			{titles: manyPeople(10), cont: "p2"},
			{titles: []string{"List of physicists", "Another Person"}, cont: "p3"},
			{titles: manyPeople(40)},
		},
	}}
	f, _ := newFetcher(t, source, Config{EarlyExitTarget: 25, MaxPages: 2})

	titles, err := f.Candidates(context.Background(), "Sparse", datatypes.Forward)
	require.NoError(t, err)
	// Page cap reached before the target: two pages, twelve titles.
	assert.Len(t, titles, 12)
	assert.Equal(t, 2, source.links)
}

func TestCandidatesPersistentFailureIsDeadEnd(t *testing.T) {
	source := &pagedSource{err: errors.New("remote down")}
	f, store := newFetcher(t, source, Config{})

	titles, err := f.Candidates(context.Background(), "Doomed", datatypes.Forward)
	require.NoError(t, err)
	assert.Empty(t, titles)

	// Failures must not be cached as empty link sets.
	_, found, err := store.GetTitles(cache.KindLinks, "doomed")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCandidatesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &pagedSource{pages: map[string][]page{}}
	f, _ := newFetcher(t, source, Config{})

	_, err := f.Candidates(ctx, "Albert Einstein", datatypes.Forward)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
}

// countingMetrics records fetch and cache observations by label.
type countingMetrics struct {
	fetches map[string]int
	lookups map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{fetches: map[string]int{}, lookups: map[string]int{}}
}

func (m *countingMetrics) ObserveFetch(direction string) { m.fetches[direction]++ }

func (m *countingMetrics) ObserveCacheLookup(kind, result string) {
	m.lookups[kind+"/"+result]++
}

func TestCandidatesRecordsMetrics(t *testing.T) {
	source := &pagedSource{pages: map[string][]page{
		"Albert Einstein": {{titles: []string{"Mileva Marić"}}},
	}}
	metrics := newCountingMetrics()
	f, _ := newFetcher(t, source, Config{Metrics: metrics})

	_, err := f.Candidates(context.Background(), "Albert Einstein", datatypes.Forward)
	require.NoError(t, err)
	_, err = f.Candidates(context.Background(), "Albert Einstein", datatypes.Forward)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.fetches["forward"])
	assert.Equal(t, 1, metrics.lookups["links/miss"])
	assert.Equal(t, 1, metrics.lookups["links/hit"])
}

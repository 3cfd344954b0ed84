// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
	"github.com/wikipath/wikipath/services/pathfinder/wiki"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTitles struct {
	resolved map[string]string
	suggest  []string
	details  map[string]wiki.PageDetail
}

func (f *fakeTitles) ResolveTitle(_ context.Context, query string) (string, error) {
	return f.resolved[query], nil
}

func (f *fakeTitles) Suggest(_ context.Context, _ string, _ int) ([]string, error) {
	return f.suggest, nil
}

func (f *fakeTitles) PageDetails(_ context.Context, titles []string) ([]wiki.PageDetail, error) {
	out := make([]wiki.PageDetail, len(titles))
	for i, title := range titles {
		if d, ok := f.details[title]; ok {
			out[i] = d
		} else {
			out[i] = wiki.PageDetail{Title: title}
		}
	}
	return out, nil
}

type fakeSearcher struct {
	events []datatypes.ProgressEvent
	starts []string
}

func (f *fakeSearcher) Search(_ context.Context, start, end string) <-chan datatypes.ProgressEvent {
	f.starts = append(f.starts, start+"|"+end)
	ch := make(chan datatypes.ProgressEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func newRouter(h *SearchHandler) *gin.Engine {
	router := gin.New()
	router.POST("/api/shortest-path", h.ShortestPath)
	router.GET("/api/search", h.Suggest)
	router.GET("/healthz", h.Health)
	return router
}

// sseEvents parses "event:"/"data:" pairs out of an SSE body.
func sseEvents(t *testing.T, body string) []datatypes.ProgressEvent {
	t.Helper()
	var events []datatypes.ProgressEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev datatypes.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func postSearch(router *gin.Engine, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/shortest-path", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestShortestPathStreamsResult(t *testing.T) {
	searcher := &fakeSearcher{events: []datatypes.ProgressEvent{
		{Type: datatypes.EventInfo, Message: "Searching"},
		{Type: datatypes.EventExploring, Direction: "forward", Node: "Albert Einstein"},
		{Type: datatypes.EventFinished, Result: &datatypes.Result{
			Outcome: datatypes.PathFound,
			Path:    []string{"Albert Einstein", "Marie Curie"},
			Stats:   datatypes.Stats{Hops: 1, Visited: 4},
		}},
	}}
	titles := &fakeTitles{
		resolved: map[string]string{"einstein": "Albert Einstein", "curie": "Marie Curie"},
		details: map[string]wiki.PageDetail{
			"Albert Einstein": {Title: "Albert Einstein", URL: "https://en.wikipedia.org/wiki/Albert_Einstein"},
			"Marie Curie":     {Title: "Marie Curie", URL: "https://en.wikipedia.org/wiki/Marie_Curie"},
		},
	}
	h := NewSearchHandler(searcher, titles, nil, nil, nil)
	rec := postSearch(newRouter(h), `{"start": "einstein", "end": "curie"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"Albert Einstein|Marie Curie"}, searcher.starts)

	events := sseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, datatypes.EventFinished, last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, []string{"Albert Einstein", "Marie Curie"}, last.Result.Path)
	require.Len(t, last.Steps, 2)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Marie_Curie", last.Steps[1].URL)
	assert.NotEmpty(t, last.Id)
	assert.Positive(t, last.CreatedAt)
}

func TestShortestPathUnresolvedTitle(t *testing.T) {
	searcher := &fakeSearcher{}
	titles := &fakeTitles{resolved: map[string]string{"einstein": "Albert Einstein"}}
	h := NewSearchHandler(searcher, titles, nil, nil, nil)

	rec := postSearch(newRouter(h), `{"start": "einstein", "end": "xqzwkj"}`)

	events := sseEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, datatypes.EventError, events[0].Type)
	assert.Contains(t, events[0].Message, "xqzwkj")
	assert.Empty(t, searcher.starts, "search must not start with an unresolved endpoint")
}

func TestShortestPathBadRequest(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, &fakeTitles{}, nil, nil, nil)

	rec := postSearch(newRouter(h), `{"start": "only one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShortestPathNoPath(t *testing.T) {
	searcher := &fakeSearcher{events: []datatypes.ProgressEvent{
		{Type: datatypes.EventNotFound, Result: &datatypes.Result{
			Outcome: datatypes.NoPathFound,
			Reason:  "frontier exhausted without intersection",
		}},
	}}
	titles := &fakeTitles{resolved: map[string]string{"a": "A Person", "b": "B Person"}}
	h := NewSearchHandler(searcher, titles, nil, nil, nil)

	rec := postSearch(newRouter(h), `{"start": "a", "end": "b"}`)

	events := sseEvents(t, rec.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, datatypes.EventNotFound, last.Type)
	assert.Empty(t, last.Steps)
}

func TestSuggest(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, &fakeTitles{suggest: []string{"Ada Lovelace", "Adam Smith"}}, nil, nil, nil)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=ada", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Ada Lovelace", "Adam Smith"}, resp.Results)
}

func TestSuggestMissingQuery(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, &fakeTitles{}, nil, nil, nil)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := NewSearchHandler(&fakeSearcher{}, &fakeTitles{}, nil, nil, nil)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

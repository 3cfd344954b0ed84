// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestLinksParsesPageAndContinuation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "links", r.URL.Query().Get("prop"))
		assert.Equal(t, "Albert Einstein", r.URL.Query().Get("titles"))
		w.Write([]byte(`{
			"continue": {"plcontinue": "736|0|Annus", "continue": "||"},
			"query": {"pages": {"736": {"pageid": 736, "title": "Albert Einstein",
				"links": [{"ns": 0, "title": "Annalen der Physik"}, {"ns": 0, "title": "Anarchism"}]}}}
		}`))
	})

	titles, cont, err := client.Links(context.Background(), "Albert Einstein", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Annalen der Physik", "Anarchism"}, titles)
	assert.Equal(t, "736|0|Annus", cont)
}

func TestLinksLastPageHasNoContinuation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("plcontinue"))
		w.Write([]byte(`{"query": {"pages": {"736": {"title": "A", "links": [{"title": "B"}]}}}}`))
	})

	titles, cont, err := client.Links(context.Background(), "A", "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles)
	assert.Empty(t, cont)
}

func TestLinksMissingPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {"pages": {"-1": {"title": "No Such Page", "missing": null}}}}`))
	})

	titles, cont, err := client.Links(context.Background(), "No Such Page", "")
	require.NoError(t, err)
	assert.Empty(t, titles)
	assert.Empty(t, cont)
}

func TestBacklinksParsesList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "backlinks", r.URL.Query().Get("list"))
		assert.Equal(t, "Physics", r.URL.Query().Get("bltitle"))
		w.Write([]byte(`{
			"continue": {"blcontinue": "0|12345"},
			"query": {"backlinks": [{"title": "Isaac Newton"}, {"title": "Marie Curie"}]}
		}`))
	})

	titles, cont, err := client.Backlinks(context.Background(), "Physics", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Isaac Newton", "Marie Curie"}, titles)
	assert.Equal(t, "0|12345", cont)
}

func TestCategoriesBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Marie Curie|Ghost Page", r.URL.Query().Get("titles"))
		w.Write([]byte(`{"query": {"pages": {
			"20408": {"title": "Marie Curie", "categories": [
				{"ns": 14, "title": "Category:1867 births"},
				{"ns": 14, "title": "Category:Polish physicists"}]},
			"-1": {"title": "Ghost Page", "missing": null}
		}}}`))
	})

	cats, err := client.Categories(context.Background(), []string{"Marie Curie", "Ghost Page"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:1867 births", "Category:Polish physicists"}, cats["Marie Curie"])
	require.Contains(t, cats, "Ghost Page")
	assert.Empty(t, cats["Ghost Page"])
}

func TestCategoriesKeyedByInputTitleThroughRedirects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {
			"normalized": [{"from": "einstein", "to": "Einstein"}],
			"redirects": [{"from": "Einstein", "to": "Albert Einstein"}],
			"pages": {
				"736": {"title": "Albert Einstein", "categories": [
					{"ns": 14, "title": "Category:1879 births"}]}
			}}}`))
	})

	cats, err := client.Categories(context.Background(), []string{"einstein"})
	require.NoError(t, err)
	require.Contains(t, cats, "einstein")
	assert.Equal(t, []string{"Category:1879 births"}, cats["einstein"])
}

func TestCategoriesEmptyBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty batch")
	})

	cats, err := client.Categories(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"query": {"pages": {"1": {"title": "A", "links": [{"title": "B"}]}}}}`))
	})

	titles, _, err := client.Links(context.Background(), "A", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPersistentFailureIsTransientError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.Links(context.Background(), "A", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
}

func TestCancelledContextIsNotTransient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := client.Links(ctx, "A", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveTitleUsesOpenSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "opensearch":
			w.Write([]byte(`["einstien",["Albert Einstein","Einstein family"],["",""],["",""]]`))
		case "query":
			assert.Equal(t, "Albert Einstein", r.URL.Query().Get("titles"))
			w.Write([]byte(`{"query": {"pages": {"736": {"title": "Albert Einstein"}}}}`))
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	})

	title, err := client.ResolveTitle(context.Background(), "einstien")
	require.NoError(t, err)
	assert.Equal(t, "Albert Einstein", title)
}

func TestResolveTitleFallsBackToFullSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "opensearch":
			w.Write([]byte(`["zzz",[],[],[]]`))
		case "query":
			assert.Equal(t, "search", r.URL.Query().Get("list"))
			w.Write([]byte(`{"query": {"search": [{"title": "Zzyzx, California"}]}}`))
		}
	})

	title, err := client.ResolveTitle(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, "Zzyzx, California", title)
}

func TestResolveTitleNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "opensearch":
			w.Write([]byte(`["x",[],[],[]]`))
		case "query":
			w.Write([]byte(`{"query": {"search": []}}`))
		}
	})

	title, err := client.ResolveTitle(context.Background(), "xqkjwz")
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestSuggest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "opensearch", r.URL.Query().Get("action"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`["ada",["Ada Lovelace","Adam Smith","Adana"],[],[]]`))
	})

	titles, err := client.Suggest(context.Background(), "ada", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace", "Adam Smith", "Adana"}, titles)
}

func TestPageDetailsPreservesInputOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {"pages": {
			"736": {"title": "Albert Einstein",
				"fullurl": "https://en.wikipedia.org/wiki/Albert_Einstein",
				"thumbnail": {"source": "https://upload.wikimedia.org/einstein.jpg"}},
			"20408": {"title": "Marie Curie",
				"fullurl": "https://en.wikipedia.org/wiki/Marie_Curie"}
		}}}`))
	})

	details, err := client.PageDetails(context.Background(), []string{"Marie Curie", "Albert Einstein"})
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "Marie Curie", details[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Marie_Curie", details[0].URL)
	assert.Empty(t, details[0].ImageURL)
	assert.Equal(t, "Albert Einstein", details[1].Title)
	assert.Equal(t, "https://upload.wikimedia.org/einstein.jpg", details[1].ImageURL)
}

func TestPageDetailsFillsFallbackURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {"pages": {}}}`))
	})

	details, err := client.PageDetails(context.Background(), []string{"Ada Lovelace"})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Ada Lovelace", details[0].Title)
	assert.Contains(t, details[0].URL, "Ada_Lovelace")
}

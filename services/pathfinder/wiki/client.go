// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wiki is the client for the remote MediaWiki action API.
//
// It exposes exactly the operations the search pipeline consumes: one
// page of outgoing links or backlinks per call (the fetch layer drives
// pagination so it can stop early), batched category lookups, fuzzy
// title resolution, prefix suggestions, and page details for the final
// path. All requests share a client-side rate limiter and a polite
// User-Agent, and a transient failure (network error, timeout, 5xx) is
// retried once with backoff before being reported.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wikipath/wikipath/pkg/logging"
)

const (
	defaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	defaultUserAgent = "wikipath/1.0 (https://github.com/wikipath/wikipath)"

	// mainNamespace restricts link and backlink queries to articles,
	// excluding talk/template/category pages at the source.
	mainNamespace = "0"

	retryBackoff = 500 * time.Millisecond
)

// Config configures a Client.
type Config struct {
	// BaseURL is the action API endpoint. Default: English Wikipedia.
	BaseURL string

	// UserAgent identifies this client to the remote API.
	UserAgent string

	// RequestsPerSecond is the client-side rate cap. Zero disables
	// rate limiting (tests).
	RequestsPerSecond float64

	// Timeout bounds a single HTTP request. Default: 12s.
	Timeout time.Duration

	Logger *logging.Logger
}

// Client talks to the MediaWiki action API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// New creates a Client from config.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    limiter,
		logger:     cfg.Logger,
	}
}

// apiResponse covers every query shape this client parses.
type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages map[string]struct {
			PageID int    `json:"pageid"`
			Title  string `json:"title"`
			// Missing is "" when present in formatversion 1; only key
			// presence matters.
			Missing json.RawMessage `json:"missing"`
			FullURL string          `json:"fullurl"`
			Links   []struct {
				Title string `json:"title"`
			} `json:"links"`
			Categories []struct {
				Title string `json:"title"`
			} `json:"categories"`
			Thumbnail struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Redirects []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"redirects"`
		Backlinks []struct {
			Title string `json:"title"`
		} `json:"backlinks"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// get issues one API request with the retry-once policy.
func (c *Client) get(ctx context.Context, params url.Values) (*apiResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		resp, err := c.doOnce(ctx, params)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.logger.Warn("wiki request failed",
			"action", params.Get("action"),
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}
	return nil, fmt.Errorf("%w: %v", ErrTransient, lastErr)
}

func (c *Client) doOnce(ctx context.Context, params url.Values) (*apiResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}

func baseParams(action string) url.Values {
	params := url.Values{}
	params.Set("action", action)
	params.Set("format", "json")
	params.Set("formatversion", "1")
	return params
}

// Links returns one page of outgoing article links for title, plus the
// continuation token for the next page ("" when exhausted).
func (c *Client) Links(ctx context.Context, title, cont string) ([]string, string, error) {
	params := baseParams("query")
	params.Set("titles", title)
	params.Set("prop", "links")
	params.Set("plnamespace", mainNamespace)
	params.Set("pllimit", "max")
	if cont != "" {
		params.Set("plcontinue", cont)
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, "", err
	}

	var titles []string
	for id, page := range resp.Query.Pages {
		if id == "-1" || len(page.Missing) > 0 {
			continue
		}
		for _, link := range page.Links {
			titles = append(titles, link.Title)
		}
	}
	return titles, resp.Continue["plcontinue"], nil
}

// Backlinks returns one page of articles linking to title, plus the
// continuation token for the next page ("" when exhausted).
func (c *Client) Backlinks(ctx context.Context, title, cont string) ([]string, string, error) {
	params := baseParams("query")
	params.Set("list", "backlinks")
	params.Set("bltitle", title)
	params.Set("blnamespace", mainNamespace)
	params.Set("bllimit", "max")
	if cont != "" {
		params.Set("blcontinue", cont)
	}

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, "", err
	}

	titles := make([]string, 0, len(resp.Query.Backlinks))
	for _, link := range resp.Query.Backlinks {
		titles = append(titles, link.Title)
	}
	return titles, resp.Continue["blcontinue"], nil
}

// Categories fetches category memberships for a batch of titles in one
// request. Results are keyed by the caller's input titles: the API
// resolves redirects and normalizes spellings, so response pages are
// mapped back through the query's normalized and redirects tables.
// Missing pages map to an empty slice so the verifier can cache a
// negative verdict for them.
func (c *Client) Categories(ctx context.Context, titles []string) (map[string][]string, error) {
	if len(titles) == 0 {
		return map[string][]string{}, nil
	}

	params := baseParams("query")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("prop", "categories")
	params.Set("cllimit", "max")
	params.Set("redirects", "1")

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	byResolved := make(map[string][]string, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		if len(page.Missing) > 0 {
			byResolved[page.Title] = []string{}
			continue
		}
		cats := make([]string, 0, len(page.Categories))
		for _, cat := range page.Categories {
			cats = append(cats, cat.Title)
		}
		byResolved[page.Title] = cats
	}

	forward := make(map[string]string, len(resp.Query.Normalized)+len(resp.Query.Redirects))
	for _, n := range resp.Query.Normalized {
		forward[n.From] = n.To
	}
	for _, r := range resp.Query.Redirects {
		forward[r.From] = r.To
	}

	result := make(map[string][]string, len(titles))
	for _, title := range titles {
		resolved := title
		// Normalization then redirect, each at most a short chain.
		for hop := 0; hop < 4; hop++ {
			next, ok := forward[resolved]
			if !ok {
				break
			}
			resolved = next
		}
		if cats, ok := byResolved[resolved]; ok {
			result[title] = cats
		}
	}
	return result, nil
}

// ResolveTitle maps a fuzzy query (typos, missing diacritics) to the
// canonical article title, using the opensearch endpoint with a full
// search fallback. Returns "" when nothing matches.
func (c *Client) ResolveTitle(ctx context.Context, query string) (string, error) {
	matches, err := c.openSearch(ctx, query, 5)
	if err == nil && len(matches) > 0 {
		if canonical, err := c.canonicalTitle(ctx, matches[0]); err == nil && canonical != "" {
			return canonical, nil
		}
		return matches[0], nil
	}

	params := baseParams("query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "3")

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Query.Search) == 0 {
		return "", nil
	}
	return resp.Query.Search[0].Title, nil
}

// Suggest returns up to limit prefix-search suggestions for query.
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	return c.openSearch(ctx, query, limit)
}

// openSearch calls the opensearch endpoint, whose response is a bare
// four-element JSON array rather than the usual query envelope.
func (c *Client) openSearch(ctx context.Context, query string, limit int) ([]string, error) {
	params := baseParams("opensearch")
	params.Set("search", query)
	params.Set("limit", fmt.Sprint(limit))
	params.Set("namespace", mainNamespace)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: http status %d", ErrTransient, resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode opensearch response: %w", err)
	}
	if len(raw) < 2 {
		return nil, nil
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("decode opensearch titles: %w", err)
	}
	return titles, nil
}

// canonicalTitle follows redirects to the canonical form of a title.
// Returns "" for pages that do not exist.
func (c *Client) canonicalTitle(ctx context.Context, title string) (string, error) {
	params := baseParams("query")
	params.Set("titles", title)
	params.Set("redirects", "1")

	resp, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	for id, page := range resp.Query.Pages {
		if id == "-1" || len(page.Missing) > 0 {
			continue
		}
		return page.Title, nil
	}
	return "", nil
}

// PageDetail is the per-article presentation data for the final path.
type PageDetail struct {
	Title    string
	URL      string
	ImageURL string
}

// PageDetails fetches canonical URLs and thumbnails for a batch of
// titles, returned in input order. A failure here degrades to bare
// titles; it never fails a finished search, so errors only surface for
// the caller to log.
func (c *Client) PageDetails(ctx context.Context, titles []string) ([]PageDetail, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	params := baseParams("query")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("prop", "pageimages|info")
	params.Set("pithumbsize", "200")
	params.Set("inprop", "url")

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	byTitle := make(map[string]PageDetail, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		byTitle[page.Title] = PageDetail{
			Title:    page.Title,
			URL:      page.FullURL,
			ImageURL: page.Thumbnail.Source,
		}
	}

	details := make([]PageDetail, 0, len(titles))
	for _, title := range titles {
		if d, ok := byTitle[title]; ok {
			details = append(details, d)
			continue
		}
		details = append(details, PageDetail{
			Title: title,
			URL:   "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_")),
		})
	}
	return details, nil
}

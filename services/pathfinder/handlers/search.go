// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP front end: the streaming
// shortest-path endpoint, title suggestions, and health.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikipath/wikipath/pkg/logging"
	"github.com/wikipath/wikipath/services/pathfinder/captions"
	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
	"github.com/wikipath/wikipath/services/pathfinder/observability"
	"github.com/wikipath/wikipath/services/pathfinder/wiki"
)

const keepAliveInterval = 15 * time.Second

// Searcher runs one search and returns its finite event stream.
// *engine.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, start, end string) <-chan datatypes.ProgressEvent
}

// TitleService is the slice of the wiki client the handlers need.
type TitleService interface {
	ResolveTitle(ctx context.Context, query string) (string, error)
	Suggest(ctx context.Context, query string, limit int) ([]string, error)
	PageDetails(ctx context.Context, titles []string) ([]wiki.PageDetail, error)
}

// SearchHandler serves the shortest-path and suggestion endpoints.
type SearchHandler struct {
	engine    Searcher
	titles    TitleService
	captioner *captions.Captioner
	metrics   *observability.SearchMetrics
	logger    *logging.Logger
}

// NewSearchHandler wires the handler. captioner and metrics may be nil.
func NewSearchHandler(
	engine Searcher,
	titles TitleService,
	captioner *captions.Captioner,
	metrics *observability.SearchMetrics,
	logger *logging.Logger,
) *SearchHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SearchHandler{
		engine:    engine,
		titles:    titles,
		captioner: captioner,
		metrics:   metrics,
		logger:    logger,
	}
}

// pathRequest is the body of POST /api/shortest-path.
type pathRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// ShortestPath streams search progress as SSE and finishes with a
// terminal event carrying the result. Fuzzy inputs are resolved to
// canonical article titles before the search starts.
func (h *SearchHandler) ShortestPath(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	writer, err := NewSSEWriter(c.Writer)
	if err != nil {
		h.logger.Error("sse unsupported", "error", err.Error())
		return
	}

	ctx := c.Request.Context()
	start, end, ok := h.resolveEndpoints(ctx, writer, req.Start, req.End)
	if !ok {
		return
	}

	if h.metrics != nil {
		h.metrics.ActiveSearches.Inc()
		defer h.metrics.ActiveSearches.Dec()
	}

	started := time.Now()
	events := h.engine.Search(ctx, start, end)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			if event.Terminal() {
				h.finishStream(ctx, writer, event, started)
				continue
			}
			if err := writer.WriteEvent(event); err != nil {
				h.logger.Debug("client disconnected", "error", err.Error())
				// Keep draining so the engine can deliver its
				// terminal event and stop.
			}
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				h.logger.Debug("keepalive failed, client gone")
			}
		}
	}
}

// resolveEndpoints maps both user inputs to canonical titles, emitting
// an error event when either cannot be resolved.
func (h *SearchHandler) resolveEndpoints(ctx context.Context, writer SSEWriter, rawStart, rawEnd string) (start, end string, ok bool) {
	resolve := func(raw string) (string, bool) {
		title, err := h.titles.ResolveTitle(ctx, strings.TrimSpace(raw))
		if err != nil {
			h.logger.Warn("title resolution failed", "query", raw, "error", err.Error())
			return strings.TrimSpace(raw), true // fall back to the raw input
		}
		if title == "" {
			writer.WriteEvent(datatypes.ProgressEvent{
				Type:    datatypes.EventError,
				Message: "No article found for: " + raw,
			})
			return "", false
		}
		return title, true
	}

	if start, ok = resolve(rawStart); !ok {
		return "", "", false
	}
	if end, ok = resolve(rawEnd); !ok {
		return "", "", false
	}
	return start, end, true
}

// finishStream decorates a found path with page details and captions,
// records metrics, and writes the terminal event.
func (h *SearchHandler) finishStream(ctx context.Context, writer SSEWriter, event datatypes.ProgressEvent, started time.Time) {
	result := event.Result
	if result != nil && result.Outcome == datatypes.PathFound && len(result.Path) > 0 {
		event.Steps = h.decorate(ctx, result.Path)
	}
	if h.metrics != nil && result != nil {
		h.metrics.ObserveSearch(
			string(result.Outcome),
			time.Since(started).Seconds(),
			result.Stats.Hops,
			result.Stats.Visited,
		)
	}
	if err := writer.WriteEvent(event); err != nil {
		h.logger.Debug("terminal event write failed", "error", err.Error())
	}
}

// decorate builds PathSteps with article URLs, thumbnails, and edge
// captions. Both decorations are best-effort; a bare title chain is a
// valid response.
func (h *SearchHandler) decorate(ctx context.Context, path []string) []datatypes.PathStep {
	steps := make([]datatypes.PathStep, len(path))
	for i, title := range path {
		steps[i] = datatypes.PathStep{Title: title}
	}

	details, err := h.titles.PageDetails(ctx, path)
	if err != nil {
		h.logger.Warn("page details unavailable", "error", err.Error())
	} else {
		for i := range steps {
			if i < len(details) {
				steps[i].URL = details[i].URL
				steps[i].ImageURL = details[i].ImageURL
			}
		}
	}

	if cs := h.captioner.CaptionPath(ctx, path); cs != nil {
		// Caption i describes the edge from step i to step i+1.
		for i, caption := range cs {
			if i+1 < len(steps) {
				steps[i+1].Caption = caption
			}
		}
	}
	return steps
}

// Suggest serves GET /api/search?q= with prefix-matched article titles.
func (h *SearchHandler) Suggest(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	titles, err := h.titles.Suggest(c.Request.Context(), query, 10)
	if err != nil {
		h.logger.Warn("suggestion lookup failed", "query", query, "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "suggestion service unavailable"})
		return
	}
	if titles == nil {
		titles = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"results": titles})
}

// Health serves GET /healthz.
func (h *SearchHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

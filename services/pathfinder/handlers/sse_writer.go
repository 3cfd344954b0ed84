// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wikipath/wikipath/services/pathfinder/datatypes"
)

// SSEWriter writes search progress events to an HTTP response in SSE
// wire format (event: type\ndata: json\n\n), flushing after every
// event. Each event is stamped with a UUID and a millisecond timestamp
// so clients can order and deduplicate.
//
// Implementations are safe for concurrent use; the search loop and the
// keepalive ticker write from different goroutines.
type SSEWriter interface {
	// WriteEvent stamps, serializes, and flushes one event.
	WriteEvent(event datatypes.ProgressEvent) error

	// WriteKeepAlive sends an SSE comment line. Comments are ignored
	// by clients but keep intermediaries from closing an idle
	// connection during long expansions.
	WriteKeepAlive() error
}

type sseWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// NewSSEWriter wraps a ResponseWriter for SSE output. The caller must
// have set the text/event-stream headers already. Fails when the
// writer cannot flush, since buffered SSE defeats the purpose.
func NewSSEWriter(w http.ResponseWriter) (SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &sseWriter{writer: w, flusher: flusher}, nil
}

func (s *sseWriter) WriteEvent(event datatypes.ProgressEvent) error {
	event.Id = uuid.New().String()
	event.CreatedAt = time.Now().UnixMilli()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.writer, ": ping\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	s.flusher.Flush()
	return nil
}

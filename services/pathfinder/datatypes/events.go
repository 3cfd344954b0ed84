// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// EventType discriminates progress events on the search stream.
type EventType string

const (
	// EventInfo announces the resolved start/end pair before expansion.
	EventInfo EventType = "info"

	// EventExploring reports one node expansion: candidate counts before
	// and after each filtering stage, plus cumulative stats.
	EventExploring EventType = "exploring"

	// EventFinished carries the resolved path. Terminal.
	EventFinished EventType = "finished"

	// EventNotFound reports graph exhaustion or a ceiling. Terminal.
	EventNotFound EventType = "not_found"

	// EventTimeout reports hard-deadline expiry. Terminal.
	EventTimeout EventType = "timeout"

	// EventError reports a search-level failure (e.g. total loss of
	// remote connectivity on the seed nodes). Terminal.
	EventError EventType = "error"
)

// ProgressEvent is one record on the finite event sequence produced by a
// search. The engine produces; the HTTP layer or CLI consumes and
// re-serializes. The last event on every stream is terminal.
type ProgressEvent struct {
	Type EventType `json:"type"`

	// Id and CreatedAt are populated by the transport layer when the
	// event is written out, not by the engine.
	Id        string `json:"id,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`

	// Message is a human-readable note (info and error events).
	Message string `json:"message,omitempty"`

	// Exploration detail (exploring events).
	Direction string `json:"direction,omitempty"`
	Node      string `json:"node,omitempty"`
	RawLinks  int    `json:"raw_links,omitempty"`
	Plausible int    `json:"plausible,omitempty"`
	Verified  int    `json:"verified,omitempty"`

	// Result is set on terminal events (finished, not_found, timeout).
	Result *Result `json:"result,omitempty"`

	// Steps decorates the final path with per-article detail and edge
	// captions. Populated by the service layer, never by the engine.
	Steps []PathStep `json:"steps,omitempty"`

	Stats *Stats `json:"stats,omitempty"`
}

// Terminal reports whether this event ends the stream.
func (e ProgressEvent) Terminal() bool {
	switch e.Type {
	case EventFinished, EventNotFound, EventTimeout, EventError:
		return true
	}
	return false
}

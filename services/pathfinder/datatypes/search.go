// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the shared types exchanged between the search
// engine, the HTTP handlers, and the CLI.
package datatypes

import "time"

// Direction identifies which side of the bidirectional search a frontier
// belongs to. Forward explores outgoing links from the start article;
// Backward explores incoming links (backlinks) from the end article.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// String returns "forward" or "backward".
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Outcome is the terminal state of a search. Exactly one outcome is
// produced per search; the engine never hangs.
type Outcome string

const (
	// PathFound means the two frontiers intersected and a chain was
	// reconstructed.
	PathFound Outcome = "path_found"

	// NoPathFound means a frontier emptied, or a ceiling (hop, node,
	// step) was reached, before any intersection. A legitimate result,
	// not an error.
	NoPathFound Outcome = "no_path_found"

	// TimedOut means the hard deadline fired before intersection.
	TimedOut Outcome = "timed_out"
)

// Stats carries the cumulative counters reported with every progress
// event and with the terminal result.
type Stats struct {
	// Visited is the total number of keys in both parent maps.
	Visited int `json:"visited"`

	// Expanded is the number of nodes whose links were fetched.
	Expanded int `json:"expanded"`

	// Hops is the edge count of the resolved path (0 when no path).
	Hops int `json:"hops"`

	// Elapsed is wall-clock time since the search started.
	Elapsed time.Duration `json:"-"`

	// ElapsedMs mirrors Elapsed for JSON consumers.
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Result is the terminal value of a search.
type Result struct {
	Outcome Outcome `json:"outcome"`

	// Path is the ordered chain of display titles from start to end.
	// Empty unless Outcome is PathFound.
	Path []string `json:"path,omitempty"`

	// Reason is a short human-readable explanation for NoPathFound
	// and TimedOut outcomes.
	Reason string `json:"reason,omitempty"`

	Stats Stats `json:"stats"`
}

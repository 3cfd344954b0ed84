// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package norm canonicalizes article titles into stable graph keys.
//
// Every map lookup, cache key, and visited-set insertion in the search
// pipeline goes through Key. Two raw titles that differ only in case,
// underscore/whitespace convention, or diacritics must map to the same
// PageKey, or the same article would appear as two distinct graph nodes
// and corrupt frontier sizes and path reconstruction.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package norm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	unorm "golang.org/x/text/unicode/norm"
)

// PageKey is the normalized, canonical identity of an article title.
//
// The zero value ("") is never a valid key and is used by the search
// engine as the "no parent" sentinel in parent-pointer maps.
type PageKey string

// stripMarks removes combining marks after NFD decomposition, so that
// "Nguyễn Văn Thiệu" and "Nguyen Van Thieu" produce the same key.
var stripMarks = transform.Chain(
	unorm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	unorm.NFC,
)

// Key converts a raw article title into its canonical PageKey.
//
// Normalization steps, in order:
//  1. Underscores become spaces (MediaWiki URL convention).
//  2. Leading/trailing whitespace is trimmed and runs of internal
//     whitespace collapse to a single space.
//  3. Diacritics are stripped (NFD decomposition, combining marks removed).
//  4. The result is lowercased.
//
// Key is idempotent: Key(string(Key(t))) == Key(t) for all t. An empty
// or whitespace-only title yields the empty PageKey.
func Key(raw string) PageKey {
	s := strings.ReplaceAll(raw, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return PageKey(strings.ToLower(s))
}

// Keys maps Key over a slice of raw titles, preserving order.
func Keys(raw []string) []PageKey {
	out := make([]PageKey, 0, len(raw))
	for _, t := range raw {
		out = append(out, Key(t))
	}
	return out
}

// Clean returns the display form of a raw title: underscores replaced
// and whitespace collapsed, but case and diacritics preserved. This is
// what the engine reports back to callers in reconstructed paths.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

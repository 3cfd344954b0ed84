// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package person

import "strings"

// Plausible reports whether a title could possibly be a person article.
// It rejects empty titles, titles starting with a digit (years, dates),
// "List of" pages, and anything matching a meta-page pattern. It costs
// no network calls and never rejects an actual person.
func Plausible(title string) bool {
	if title == "" {
		return false
	}
	if title[0] >= '0' && title[0] <= '9' {
		return false
	}
	if strings.HasPrefix(title, "List of") {
		return false
	}
	lower := strings.ToLower(title)
	for _, pattern := range metaPagePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

// FilterPlausible returns the titles that pass Plausible, preserving
// input order.
func FilterPlausible(titles []string) []string {
	filtered := make([]string, 0, len(titles))
	for _, title := range titles {
		if Plausible(title) {
			filtered = append(filtered, title)
		}
	}
	return filtered
}

// IsHuman applies the two-sided category keyword test. Categories are
// full category titles as returned by the API (e.g. "Category:1867
// births"); case does not matter.
//
// A negative keyword in any category vetoes the article unless an
// exception keyword appears in the same category. With no veto, any
// positive keyword, a birth/death year category, or a century category
// naming a ruler role confirms a person. Articles with no signal either
// way are not people.
func IsHuman(categories []string) bool {
	lowered := make([]string, len(categories))
	for i, cat := range categories {
		lowered[i] = strings.ToLower(cat)
	}

	for _, cat := range lowered {
		clean := strings.TrimPrefix(cat, "category:")
		if !containsAny(clean, negativeKeywords) {
			continue
		}
		if !containsAny(clean, exceptionKeywords) {
			return false
		}
	}

	for _, cat := range lowered {
		if containsAny(cat, positiveKeywords) {
			return true
		}
		if birthsRe.MatchString(cat) && !strings.Contains(cat, "animal") {
			return true
		}
		if deathsRe.MatchString(cat) && !strings.Contains(cat, "animal") {
			return true
		}
		if centuryRe.MatchString(cat) && containsAny(cat, centuryRoles) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

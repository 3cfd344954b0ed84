// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package person decides whether a Wikipedia article is about a human
// being. It layers a free heuristic title filter, a VIP allowlist, and
// a batched category verifier that consults the durable verdict cache
// before touching the remote API.
package person

import "regexp"

// positiveKeywords mark category names that strongly indicate a person
// article. Matched as substrings against the lowercased category title.
var positiveKeywords = []string{
	"living people", "people from", "alumni", "players", "actors", "actresses",
	"politicians", "singers", "musicians", "writers", "directors", "scientists",
	"businesspeople", "entrepreneurs", "athletes", "journalists", "activists",
	"emperors", "monarchs", "khans", "sultans", "pharaohs", "tsars", "czars",
	"kings", "queens", "princes", "princesses", "dukes", "counts", "barons",
	"generals", "commanders", "admirals", "marshals", "warlords",
	"conquerors", "rulers", "regents", "caliphs", "popes", "patriarchs",
	"philosophers", "theologians", "historians", "mathematicians", "inventors",
}

// negativeKeywords mark categories for animals, works, places, things.
// A single unexcused negative hit vetoes the article.
var negativeKeywords = []string{
	"animal", "horse", "racehorse", "dog", "cat breed", "species",
	"fictional", "character", "mythology", "mythological",
	"band", "musical group", "company", "organization", "corporation",
	"companies", "inc.", "llc", "ltd",
	"film", "movie", "song", "album", "book", "novel", "game",
	"place", "city", "country", "river", "mountain", "building",
	"event", "battle", "war", "treaty", "conference",
	"dynasty", "empire", "kingdom",
	"(pda)", "(software)", "(hardware)", "(operating system)",
	"computer", "device", "vehicle", "ship", "aircraft",
	"product", "series", "video game", "programming language",
	"technology", "software", "hardware", "smartphone", "tablet",
	"operating system", "application", "website",
}

// exceptionKeywords disarm a negative hit: "racehorse trainers" and
// "company founders" are people even though the category name trips the
// negative list.
var exceptionKeywords = []string{
	"activist", "trainer", "owner", "engineer", "developer", "founder", "ceo",
}

// metaPagePatterns are lowercase substrings identifying namespace pages,
// list and survey articles, and disambiguation pages that can never be a
// person. Used by the heuristic title filter.
var metaPagePatterns = []string{
	"list of", "category:", "template:", "portal:", "help:", "wikipedia:", "file:",
	"user:", "talk:", "special:", "mediawiki:", "draft:", "timedtext:", "module:",
	"disambiguation", "timeline of", "history of", "geography of", "culture of",
	"economy of", "politics of", "government of", "military of",
	"(software)", "(operating system)", "(programming", "(computer", "(app)",
	"(company)", "(device)", "(product)", "(video game)", "(band)", "(film)",
}

var (
	birthsRe  = regexp.MustCompile(`\d{4} births`)
	deathsRe  = regexp.MustCompile(`\d{4} deaths`)
	centuryRe = regexp.MustCompile(`\d{1,2}(st|nd|rd|th)-century`)
)

// centuryRoles are the roles that make an "Nth-century X" category count
// as a person signal.
var centuryRoles = []string{"rulers", "people", "monarchs", "leaders"}

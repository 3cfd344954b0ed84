// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package person

import "github.com/wikipath/wikipath/services/pathfinder/norm"

// vipNames are well-known people whose humanity needs no category
// lookup. Matching is by normalized title, so "albert einstein" and
// "Albert_Einstein" both hit.
var vipNames = []string{
	// Leaders
	"Donald Trump", "Joe Biden", "Barack Obama", "George W. Bush", "Bill Clinton",
	"Hillary Clinton", "Vladimir Putin", "Xi Jinping", "Angela Merkel", "Emmanuel Macron",
	"Boris Johnson", "Narendra Modi", "Justin Trudeau", "Benjamin Netanyahu",
	// Historical
	"Genghis Khan", "Kublai Khan", "Alexander the Great", "Julius Caesar", "Augustus",
	"Napoleon Bonaparte", "Adolf Hitler", "Joseph Stalin", "Winston Churchill",
	"Franklin D. Roosevelt", "Queen Victoria", "Queen Elizabeth II", "King Charles III",
	"Cleopatra", "Abraham Lincoln", "George Washington", "Thomas Jefferson",
	// Revolutionary
	"Mahatma Gandhi", "Nelson Mandela", "Martin Luther King Jr.", "Che Guevara",
	"Ho Chi Minh", "Mao Zedong", "Vladimir Lenin", "Karl Marx",
	// Tech
	"Elon Musk", "Jeff Bezos", "Bill Gates", "Steve Jobs", "Mark Zuckerberg",
	"Warren Buffett", "Larry Page", "Sergey Brin", "Tim Cook", "Satya Nadella",
	"Steve Wozniak", "Larry Ellison", "Jack Dorsey", "Peter Thiel", "Marc Andreessen",
	// Scientists
	"Albert Einstein", "Isaac Newton", "Stephen Hawking", "Nikola Tesla",
	"Thomas Edison", "Marie Curie", "Charles Darwin", "Galileo Galilei",
	"Leonardo da Vinci", "Aristotle", "Plato", "Alan Turing",
	// Entertainment
	"Michael Jackson", "Elvis Presley", "Madonna", "Taylor Swift", "Beyoncé",
	"Leonardo DiCaprio", "Tom Hanks", "Brad Pitt", "Angelina Jolie",
	"Kanye West", "Oprah Winfrey", "Tom Cruise", "Will Smith",
	// Sports
	"Michael Jordan", "LeBron James", "Cristiano Ronaldo", "Lionel Messi",
	"Muhammad Ali", "Tiger Woods", "Serena Williams", "Roger Federer",
}

var vipSet = func() map[norm.PageKey]struct{} {
	set := make(map[norm.PageKey]struct{}, len(vipNames))
	for _, name := range vipNames {
		set[norm.Key(name)] = struct{}{}
	}
	return set
}()

// IsVIP reports whether title is on the allowlist.
func IsVIP(title string) bool {
	_, ok := vipSet[norm.Key(title)]
	return ok
}

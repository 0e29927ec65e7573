// Package search ranks events against a free-text query.
package search

import (
	"sort"
	"strings"
	"unicode"
)

// Document is one searchable record. Title matches weigh more than tag matches,
// which weigh more than body matches.
type Document struct {
	ID    uint
	Title string
	Tags  []string
	Body  string
}

const (
	titleWeight = 3
	tagWeight   = 2
	bodyWeight  = 1
)

// Rank returns the ids of the documents matching query, best first.
// Ties keep corpus order. An empty query returns every id in corpus order.
func Rank(query string, corpus []Document) []uint {
	terms := tokenize(query)
	if len(terms) == 0 {
		ids := make([]uint, len(corpus))
		for i, d := range corpus {
			ids[i] = d.ID
		}
		return ids
	}

	type scored struct {
		id    uint
		score int
	}

	var hits []scored
	for _, d := range corpus {
		title := tokenize(d.Title)
		tags := tokenize(strings.Join(d.Tags, " "))
		body := tokenize(d.Body)

		score := 0
		for _, term := range terms {
			score += titleWeight * matches(term, title)
			score += tagWeight * matches(term, tags)
			score += bodyWeight * matches(term, body)
		}
		if score > 0 {
			hits = append(hits, scored{id: d.ID, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}

	return ids
}

// matches scores 2 for an exact token and 1 for a prefix.
func matches(term string, tokens []string) int {
	best := 0
	for _, tok := range tokens {
		switch {
		case tok == term:
			return 2
		case strings.HasPrefix(tok, term):
			best = 1
		}
	}

	return best
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

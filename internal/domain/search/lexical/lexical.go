// Package lexical ranks documents by literal term overlap with a query.
package lexical

import (
	"sort"
	"strings"
)

// TagBoost is added on top of the substring hit when a query term equals
// one of the document's tags (case-insensitive).
const TagBoost = 2

// Fields is the searchable projection of a document.
type Fields struct {
	Text []string
	Tags []string
}

// Match is a scored document. Index is its position in the input corpus.
type Match[T any] struct {
	Doc   T
	Index int
	Score int
}

// Terms splits a query into lowercase whitespace-delimited terms.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Rank scores every document against query and returns the ones with a
// positive score, highest first. Equal scores keep corpus order.
// An empty or blank query matches nothing.
func Rank[T any](query string, docs []T, fields func(T) Fields) []Match[T] {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}

	var matches []Match[T]
	for i, d := range docs {
		if s := score(terms, fields(d)); s > 0 {
			matches = append(matches, Match[T]{Doc: d, Index: i, Score: s})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// Top returns at most limit leading matches.
func Top[T any](matches []Match[T], limit int) []Match[T] {
	if limit < 0 {
		limit = 0
	}
	if len(matches) > limit {
		return matches[:limit]
	}
	return matches
}

func score(terms []string, f Fields) int {
	parts := make([]string, 0, len(f.Text)+len(f.Tags))
	parts = append(parts, f.Text...)
	parts = append(parts, f.Tags...)
	text := strings.ToLower(strings.Join(parts, " "))

	tags := make(map[string]struct{}, len(f.Tags))
	for _, t := range f.Tags {
		tags[strings.ToLower(t)] = struct{}{}
	}

	s := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			s++
		}
		if _, ok := tags[term]; ok {
			s += TagBoost
		}
	}
	return s
}

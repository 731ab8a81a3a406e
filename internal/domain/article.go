package domain

import (
	"strings"

	"github.com/kailas-cloud/supportkb/internal/domain/search/lexical"
)

// Article is an immutable knowledge-base article from the static corpus.
type Article struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

// SearchFields returns what the lexical scorer matches: title and content as
// free text, tags as the boosted keyword set.
func (a *Article) SearchFields() lexical.Fields {
	return lexical.Fields{Text: []string{a.Title, a.Content}, Tags: a.Tags}
}

// IndexText is the text embedded into the vector index for this article.
func (a *Article) IndexText() string {
	if a.Title == "" {
		return a.Content
	}
	return a.Title + "\n\n" + a.Content
}

// Metadata flattens the article into scalar fields stored next to its vector.
func (a *Article) Metadata() Metadata {
	return Metadata{
		Category: a.Category,
		Title:    a.Title,
		Tags:     strings.Join(a.Tags, TagSeparator),
	}
}

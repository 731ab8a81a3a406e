package domain

import "strings"

// TagSeparator joins article tags into the single flat "tags" metadata field.
const TagSeparator = "|"

// Metadata is the flat, filterable projection of an article kept in the vector index.
type Metadata struct {
	Category string `json:"category"`
	Title    string `json:"title,omitempty"`
	Tags     string `json:"tags,omitempty"`
}

// TagList splits the flattened tags field.
func (m Metadata) TagList() []string {
	if m.Tags == "" {
		return nil
	}
	return strings.Split(m.Tags, TagSeparator)
}

// IndexedDocument is an article projected into the vector index.
type IndexedDocument struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  Metadata
}

package mode

// Mode is the retrieval strategy that actually produced a knowledge result.
type Mode string

const (
	// Semantic results come from the vector index (embedding similarity).
	Semantic Mode = "semantic"
	// Keyword results come from the lexical scorer (term overlap).
	Keyword Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Semantic || m == Keyword
}

// ScoreKind names the scale of scores produced in this mode.
// Scores of different kinds are not comparable.
func (m Mode) ScoreKind() string {
	switch m {
	case Semantic:
		return "similarity"
	case Keyword:
		return "term_overlap"
	default:
		return "unknown"
	}
}

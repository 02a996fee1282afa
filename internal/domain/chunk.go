package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a legal document by the kind of instrument it is.
type Category string

const (
	CategoryActs          Category = "acts"
	CategoryNotifications Category = "notifications"
	CategoryCirculars     Category = "circulars"
	CategoryRules         Category = "rules"
	CategoryForms         Category = "forms"
)

// DefaultCollection is the vector collection all chunks are written to unless
// configured otherwise.
const DefaultCollection = "legal_docs_vectors"

// Chunk is a bounded slice of a document's normalized text, the unit of
// embedding and retrieval. Chunks are append-only: once written they are
// never mutated.
type Chunk struct {
	ID         string
	Collection string
	Source     string // document name the chunk came from
	Category   Category
	SourceURL  string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// ChunkFilter restricts a vector search to chunks whose metadata exactly
// matches the set fields. Empty fields do not constrain the search.
type ChunkFilter struct {
	Source   string
	Category Category
}

// ChunkMatch pairs a retrieved chunk with its distance from the query vector
// (cosine distance, lower is closer).
type ChunkMatch struct {
	Chunk    Chunk
	Distance float32
}

// IsZero reports whether the filter constrains nothing.
func (f ChunkFilter) IsZero() bool {
	return f.Source == "" && f.Category == ""
}

// ValidateChunk validates a Chunk instance before it is written.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.Collection == "" {
		return fmt.Errorf("chunk Collection is required")
	}

	if c.Source == "" {
		return fmt.Errorf("chunk Source is required")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}

	if !isValidCategory(c.Category) {
		return fmt.Errorf("chunk Category is invalid: %s", c.Category)
	}

	return nil
}

// isValidCategory checks if a Category is one of the known values
func isValidCategory(c Category) bool {
	switch c {
	case CategoryActs, CategoryNotifications, CategoryCirculars,
		CategoryRules, CategoryForms:
		return true
	}
	return false
}

// ParseCategory converts a raw string into a known Category.
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if !isValidCategory(c) {
		return "", fmt.Errorf("unknown category %q", value)
	}
	return c, nil
}

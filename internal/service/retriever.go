package service

import (
	"context"
	"fmt"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// DefaultSearchK is the number of matches returned when the caller does not
// ask for a specific count.
const DefaultSearchK = 3

// SearchChunkRepository defines the repository interface for vector search
type SearchChunkRepository interface {
	Search(ctx context.Context, collection string, embedding []float32, k int, filter domain.ChunkFilter) ([]domain.ChunkMatch, error)
}

// QueryEmbeddingClient defines the interface for embedding a search query
type QueryEmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Snippet is a retrieval result with provenance. Distance is dropped: callers
// consume snippets in ranked order and never see raw scores.
type Snippet struct {
	Content  string
	Source   string
	Category domain.Category
}

// RetrieverService answers semantic queries against the vector index.
type RetrieverService struct {
	embedder   QueryEmbeddingClient
	chunkRepo  SearchChunkRepository
	collection string
}

// NewRetrieverService creates a new RetrieverService instance
func NewRetrieverService(embedder QueryEmbeddingClient, chunkRepo SearchChunkRepository, collection string) *RetrieverService {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &RetrieverService{
		embedder:   embedder,
		chunkRepo:  chunkRepo,
		collection: collection,
	}
}

// Search embeds the query and returns the k nearest snippets, optionally
// restricted by an exact-match metadata filter.
func (s *RetrieverService) Search(ctx context.Context, query string, k int, filter domain.ChunkFilter) ([]Snippet, error) {
	if k <= 0 {
		k = DefaultSearchK
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.chunkRepo.Search(ctx, s.collection, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	snippets := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, Snippet{
			Content:  m.Chunk.Content,
			Source:   m.Chunk.Source,
			Category: m.Chunk.Category,
		})
	}
	return snippets, nil
}

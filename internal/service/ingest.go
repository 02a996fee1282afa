package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// TextLoader extracts the raw text of a document on disk.
type TextLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

// BatchEmbeddingClient defines the interface for batch embedding generation
type BatchEmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestChunkRepository defines the repository interface for chunk writes
type IngestChunkRepository interface {
	UpsertChunks(ctx context.Context, chunks []*domain.Chunk) error
}

// IngestService turns a document file into embedded chunks in the vector
// index. All chunks of a document are written together or not at all: the
// index is only touched after the full batch of vectors has been computed.
type IngestService struct {
	loader     TextLoader
	embedder   BatchEmbeddingClient
	chunkRepo  IngestChunkRepository
	collection string
}

// NewIngestService creates a new IngestService instance
func NewIngestService(loader TextLoader, embedder BatchEmbeddingClient, chunkRepo IngestChunkRepository, collection string) *IngestService {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &IngestService{
		loader:     loader,
		embedder:   embedder,
		chunkRepo:  chunkRepo,
		collection: collection,
	}
}

// Ingest loads, normalizes, splits and embeds one document, then writes all
// of its chunks in a single batch. Returns the number of chunks written. An
// empty document succeeds with zero chunks and no index write.
func (s *IngestService) Ingest(ctx context.Context, path string, category domain.Category, sourceURL string) (int, error) {
	raw, err := s.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to load document %s: %w", path, err)
	}

	clean := NormalizeText(raw)
	texts := SplitText(clean, ChunkConfigFor(category))
	if len(texts) == 0 {
		log.Printf("ingest: document %s produced no chunks, skipping", filepath.Base(path))
		return 0, nil
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document %s: %w", filepath.Base(path), err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch for %s: %d texts, %d vectors", filepath.Base(path), len(texts), len(vectors))
	}

	source := filepath.Base(path)
	now := time.Now().UTC()
	chunks := make([]*domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &domain.Chunk{
			ID:         uuid.NewString(),
			Collection: s.collection,
			Source:     source,
			Category:   category,
			SourceURL:  sourceURL,
			ChunkIndex: i,
			Content:    text,
			Embedding:  vectors[i],
			CreatedAt:  now,
		})
	}

	if err := s.chunkRepo.UpsertChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to write chunks for %s: %w", source, err)
	}

	log.Printf("ingest: wrote %d chunks for %s (category %s)", len(chunks), source, category)
	return len(chunks), nil
}

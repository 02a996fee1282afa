package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// ChunkRepository is the vector index: persistence and nearest-neighbor
// search over embedded legal chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// UpsertChunks appends a document's chunks to the index in a single
// transaction, so a concurrent search sees either none or all of them.
// Existing chunks are never mutated; ingestion always appends.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if err := domain.ValidateChunk(c); err != nil {
			return err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO legal_chunks
				(id, collection, source, category, source_url, chunk_index, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID,
			c.Collection,
			c.Source,
			c.Category,
			nullableString(c.SourceURL),
			c.ChunkIndex,
			c.Content,
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search returns up to k chunks from the collection ranked by ascending
// cosine distance to the query vector. The filter restricts candidates to
// exact metadata matches before ranking.
func (r *ChunkRepository) Search(ctx context.Context, collection string, embedding []float32, k int, filter domain.ChunkFilter) ([]domain.ChunkMatch, error) {
	if collection == "" {
		return nil, domain.ErrEmptyCollection
	}
	if k <= 0 {
		k = 5
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, collection, source, category, source_url, chunk_index, content, created_at,
		       embedding <=> $1 AS distance
		FROM legal_chunks
		WHERE collection = $2`
	args := []any{vec, collection}

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += ` AND source = $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += ` AND category = $` + strconv.Itoa(len(args))
	}

	args = append(args, k)
	query += ` ORDER BY distance ASC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.ChunkMatch, 0, k)
	for rows.Next() {
		var m domain.ChunkMatch
		var sourceURL *string
		var category string
		if err := rows.Scan(
			&m.Chunk.ID,
			&m.Chunk.Collection,
			&m.Chunk.Source,
			&category,
			&sourceURL,
			&m.Chunk.ChunkIndex,
			&m.Chunk.Content,
			&m.Chunk.CreatedAt,
			&m.Distance,
		); err != nil {
			return nil, err
		}
		m.Chunk.Category = domain.Category(category)
		if sourceURL != nil {
			m.Chunk.SourceURL = *sourceURL
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// CountBySource reports how many chunks a given document contributed.
func (r *ChunkRepository) CountBySource(ctx context.Context, collection, source string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM legal_chunks WHERE collection = $1 AND source = $2`,
		collection, source,
	).Scan(&count)
	return count, err
}


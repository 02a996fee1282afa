package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// MockQueryEmbeddingClient is a mock implementation of QueryEmbeddingClient
type MockQueryEmbeddingClient struct {
	mock.Mock
}

func (m *MockQueryEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockSearchChunkRepository is a mock implementation of SearchChunkRepository
type MockSearchChunkRepository struct {
	mock.Mock
}

func (m *MockSearchChunkRepository) Search(ctx context.Context, collection string, embedding []float32, k int, filter domain.ChunkFilter) ([]domain.ChunkMatch, error) {
	args := m.Called(ctx, collection, embedding, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChunkMatch), args.Error(1)
}

func TestRetrieverService_Search(t *testing.T) {
	embedder := new(MockQueryEmbeddingClient)
	repo := new(MockSearchChunkRepository)
	svc := NewRetrieverService(embedder, repo, "")

	vector := make([]float32, 1536)
	embedder.On("GenerateEmbedding", mock.Anything, "gst on gifts").Return(vector, nil)

	matches := []domain.ChunkMatch{
		{Chunk: domain.Chunk{Content: "ITC not available on gifts", Source: "cgst_act.pdf", Category: domain.CategoryActs}, Distance: 0.1},
		{Chunk: domain.Chunk{Content: "gift vouchers taxable", Source: "circular_92.pdf", Category: domain.CategoryCirculars}, Distance: 0.3},
	}
	repo.On("Search", mock.Anything, domain.DefaultCollection, vector, 2, domain.ChunkFilter{}).Return(matches, nil)

	snippets, err := svc.Search(context.Background(), "gst on gifts", 2, domain.ChunkFilter{})
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "ITC not available on gifts", snippets[0].Content)
	assert.Equal(t, "cgst_act.pdf", snippets[0].Source)
	assert.Equal(t, domain.CategoryActs, snippets[0].Category)

	embedder.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRetrieverService_Search_DefaultK(t *testing.T) {
	embedder := new(MockQueryEmbeddingClient)
	repo := new(MockSearchChunkRepository)
	svc := NewRetrieverService(embedder, repo, "")

	vector := make([]float32, 1536)
	embedder.On("GenerateEmbedding", mock.Anything, "query").Return(vector, nil)
	repo.On("Search", mock.Anything, domain.DefaultCollection, vector, DefaultSearchK, domain.ChunkFilter{}).Return([]domain.ChunkMatch{}, nil)

	snippets, err := svc.Search(context.Background(), "query", 0, domain.ChunkFilter{})
	require.NoError(t, err)
	assert.Empty(t, snippets)

	repo.AssertExpectations(t)
}

func TestRetrieverService_Search_PassesFilter(t *testing.T) {
	embedder := new(MockQueryEmbeddingClient)
	repo := new(MockSearchChunkRepository)
	svc := NewRetrieverService(embedder, repo, "")

	vector := make([]float32, 1536)
	filter := domain.ChunkFilter{Source: "Circular_99.pdf"}
	embedder.On("GenerateEmbedding", mock.Anything, "itc rules").Return(vector, nil)
	repo.On("Search", mock.Anything, domain.DefaultCollection, vector, 5, filter).Return([]domain.ChunkMatch{}, nil)

	_, err := svc.Search(context.Background(), "itc rules", 5, filter)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRetrieverService_Search_EmbedFailure(t *testing.T) {
	embedder := new(MockQueryEmbeddingClient)
	repo := new(MockSearchChunkRepository)
	svc := NewRetrieverService(embedder, repo, "")

	embedder.On("GenerateEmbedding", mock.Anything, "query").Return(nil, domain.ErrEmbeddingUnavailable)

	_, err := svc.Search(context.Background(), "query", 3, domain.ChunkFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// MockTextLoader is a mock implementation of TextLoader
type MockTextLoader struct {
	mock.Mock
}

func (m *MockTextLoader) Load(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// MockBatchEmbeddingClient is a mock implementation of BatchEmbeddingClient
type MockBatchEmbeddingClient struct {
	mock.Mock
}

func (m *MockBatchEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockIngestChunkRepository is a mock implementation of IngestChunkRepository
type MockIngestChunkRepository struct {
	mock.Mock
}

func (m *MockIngestChunkRepository) UpsertChunks(ctx context.Context, chunks []*domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func TestIngestService_Ingest(t *testing.T) {
	loader := new(MockTextLoader)
	embedder := new(MockBatchEmbeddingClient)
	repo := new(MockIngestChunkRepository)
	svc := NewIngestService(loader, embedder, repo, "legal_docs_vectors")

	loader.On("Load", mock.Anything, "/staging/Circular_99.pdf").Return("Input tax credit shall not be available for goods given as gifts.", nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 1
	})).Return([][]float32{make([]float32, 1536)}, nil)

	var written []*domain.Chunk
	repo.On("UpsertChunks", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(1).([]*domain.Chunk)
	}).Return(nil)

	count, err := svc.Ingest(context.Background(), "/staging/Circular_99.pdf", domain.CategoryCirculars, "https://example.gov/c99")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, written, 1)
	assert.Equal(t, "Circular_99.pdf", written[0].Source)
	assert.Equal(t, domain.CategoryCirculars, written[0].Category)
	assert.Equal(t, "https://example.gov/c99", written[0].SourceURL)
	assert.Equal(t, "legal_docs_vectors", written[0].Collection)
	assert.Equal(t, 0, written[0].ChunkIndex)
	assert.NotEmpty(t, written[0].ID)

	loader.AssertExpectations(t)
	embedder.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestIngestService_Ingest_EmptyDocumentIsNoop(t *testing.T) {
	loader := new(MockTextLoader)
	embedder := new(MockBatchEmbeddingClient)
	repo := new(MockIngestChunkRepository)
	svc := NewIngestService(loader, embedder, repo, "")

	loader.On("Load", mock.Anything, "/staging/blank.pdf").Return("  \n 3 \n Page 1 of 1 \n", nil)

	count, err := svc.Ingest(context.Background(), "/staging/blank.pdf", domain.CategoryNotifications, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	embedder.AssertNotCalled(t, "GenerateEmbeddings", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything)
}

func TestIngestService_Ingest_EmbedFailureAborts(t *testing.T) {
	loader := new(MockTextLoader)
	embedder := new(MockBatchEmbeddingClient)
	repo := new(MockIngestChunkRepository)
	svc := NewIngestService(loader, embedder, repo, "")

	loader.On("Load", mock.Anything, "/staging/doc.pdf").Return("some regulatory text", nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, domain.ErrEmbeddingUnavailable)

	count, err := svc.Ingest(context.Background(), "/staging/doc.pdf", domain.CategoryNotifications, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, 0, count)

	repo.AssertNotCalled(t, "UpsertChunks", mock.Anything, mock.Anything)
}

func TestIngestService_Ingest_LoadFailure(t *testing.T) {
	loader := new(MockTextLoader)
	embedder := new(MockBatchEmbeddingClient)
	repo := new(MockIngestChunkRepository)
	svc := NewIngestService(loader, embedder, repo, "")

	loadErr := errors.New("file not found")
	loader.On("Load", mock.Anything, "/staging/missing.pdf").Return("", loadErr)

	_, err := svc.Ingest(context.Background(), "/staging/missing.pdf", domain.CategoryActs, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
}

func TestIngestService_Ingest_WriteFailureAborts(t *testing.T) {
	loader := new(MockTextLoader)
	embedder := new(MockBatchEmbeddingClient)
	repo := new(MockIngestChunkRepository)
	svc := NewIngestService(loader, embedder, repo, "")

	loader.On("Load", mock.Anything, "/staging/doc.pdf").Return("some regulatory text", nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{make([]float32, 1536)}, nil)
	writeErr := errors.New("connection reset")
	repo.On("UpsertChunks", mock.Anything, mock.Anything).Return(writeErr)

	count, err := svc.Ingest(context.Background(), "/staging/doc.pdf", domain.CategoryNotifications, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, 0, count)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/repository"
)

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListAfter(ctx context.Context, afterID int64) ([]*domain.Notification, error) {
	args := m.Called(ctx, afterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) LatestID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestNotificationHandler_List(t *testing.T) {
	repo := new(MockNotificationRepository)
	handler := NewNotificationHandler(repo)

	repo.On("ListRecent", mock.Anything, 10).Return([]*domain.Notification{
		{
			ID:          7,
			Title:       "New Document: Circular_99.pdf",
			Message:     "Restricts ITC on gifted goods.",
			DocName:     "Circular_99.pdf",
			ImpactLevel: domain.ImpactHigh,
			CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []*NotificationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(7), resp.Data[0].ID)
	assert.Equal(t, "HIGH", resp.Data[0].ImpactLevel)
	assert.Equal(t, "2026-08-01T12:00:00Z", resp.Data[0].CreatedAt)
}

func TestNotificationHandler_List_CustomLimit(t *testing.T) {
	repo := new(MockNotificationRepository)
	handler := NewNotificationHandler(repo)

	repo.On("ListRecent", mock.Anything, 3).Return([]*domain.Notification{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications?limit=3", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestNotificationHandler_List_InvalidLimit(t *testing.T) {
	handler := NewNotificationHandler(new(MockNotificationRepository))

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications?limit=bogus", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func deleteRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/v1/notifications/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestNotificationHandler_Delete(t *testing.T) {
	repo := new(MockNotificationRepository)
	handler := NewNotificationHandler(repo)

	repo.On("Delete", mock.Anything, int64(7)).Return(nil)

	w := httptest.NewRecorder()
	handler.Delete(w, deleteRequest("7"))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestNotificationHandler_Delete_NotFound(t *testing.T) {
	repo := new(MockNotificationRepository)
	handler := NewNotificationHandler(repo)

	repo.On("Delete", mock.Anything, int64(99)).Return(repository.ErrNotificationNotFound)

	w := httptest.NewRecorder()
	handler.Delete(w, deleteRequest("99"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandler_Delete_InvalidID(t *testing.T) {
	handler := NewNotificationHandler(new(MockNotificationRepository))

	w := httptest.NewRecorder()
	handler.Delete(w, deleteRequest("abc"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

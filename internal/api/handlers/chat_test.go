package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/service"
)

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Respond(ctx context.Context, message string, history []domain.Turn, hints service.ConversationHints) (*service.ChatResponse, error) {
	args := m.Called(ctx, message, history, hints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatResponse), args.Error(1)
}

func TestChatHandler_Respond(t *testing.T) {
	svc := new(MockChatService)
	handler := NewChatHandler(svc)

	svc.On("Respond", mock.Anything, "can i claim itc on gifts", mock.Anything, service.ConversationHints{}).Return(&service.ChatResponse{
		Text: "ITC is blocked on gifts under section 17(5).",
		Citations: []service.Citation{
			{Index: 1, Source: "cgst_act.pdf", Content: "ITC shall not be available..."},
		},
		Suggestions: []string{"How do I reverse ineligible ITC in my next return?"},
	}, nil)

	body, _ := json.Marshal(ChatRequest{Message: "can i claim itc on gifts"})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data ChatResponseBody `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data.Text, "17(5)")
	require.Len(t, resp.Data.Citations, 1)
	assert.Equal(t, "cgst_act.pdf", resp.Data.Citations[0].Source)
	assert.NotEmpty(t, resp.Data.Suggestions)
}

func TestChatHandler_Respond_PassesHints(t *testing.T) {
	svc := new(MockChatService)
	handler := NewChatHandler(svc)

	hints := service.ConversationHints{TargetDocName: "Circular_99.pdf", PriorAnalysis: "HIGH impact"}
	svc.On("Respond", mock.Anything, "what changed", mock.Anything, hints).Return(&service.ChatResponse{Text: "answer"}, nil)

	body, _ := json.Marshal(ChatRequest{
		Message:       "what changed",
		TargetDocName: "Circular_99.pdf",
		PriorAnalysis: "HIGH impact",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestChatHandler_Respond_EmptyMessage(t *testing.T) {
	svc := new(MockChatService)
	handler := NewChatHandler(svc)

	svc.On("Respond", mock.Anything, "", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyMessage)

	body, _ := json.Marshal(ChatRequest{Message: ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Respond_InvalidBody(t *testing.T) {
	handler := NewChatHandler(new(MockChatService))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	handler.Respond(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

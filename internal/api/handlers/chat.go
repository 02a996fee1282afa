package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/complyflow-labs/complyflow/internal/api"
	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/service"
)

type ChatService interface {
	Respond(ctx context.Context, message string, history []domain.Turn, hints service.ConversationHints) (*service.ChatResponse, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message       string        `json:"message"`
	History       []domain.Turn `json:"history"`
	TargetDocName string        `json:"target_doc_name"`
	PriorAnalysis string        `json:"prior_analysis"`
}

type CitationResponse struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

type ChatResponseBody struct {
	Text        string             `json:"text"`
	Citations   []CitationResponse `json:"citations"`
	Suggestions []string           `json:"suggestions"`
}

func (h *ChatHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.svc.Respond(r.Context(), req.Message, req.History, service.ConversationHints{
		TargetDocName: req.TargetDocName,
		PriorAnalysis: req.PriorAnalysis,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	body := ChatResponseBody{
		Text:        resp.Text,
		Citations:   make([]CitationResponse, 0, len(resp.Citations)),
		Suggestions: resp.Suggestions,
	}
	for _, c := range resp.Citations {
		body.Citations = append(body.Citations, CitationResponse{
			Index:   c.Index,
			Source:  c.Source,
			Content: c.Content,
		})
	}

	api.Success(w, http.StatusOK, body)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/complyflow-labs/complyflow/internal/api"
	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/service"
)

type AuditorService interface {
	Verify(ctx context.Context, doc *domain.ExtractedDocument) (*service.VerificationResult, error)
}

type AuditHandler struct {
	svc AuditorService
}

func NewAuditHandler(svc AuditorService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type AuditRequest struct {
	Text     string `json:"text"`
	Entities []struct {
		Type       string  `json:"type"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"entities"`
}

type AuditResponse struct {
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	RuleSource string `json:"rule_source,omitempty"`
}

func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	doc := &domain.ExtractedDocument{Text: req.Text}
	for _, ent := range req.Entities {
		doc.Entities = append(doc.Entities, domain.Entity{
			Type:       ent.Type,
			Value:      ent.Value,
			Confidence: ent.Confidence,
		})
	}

	result, err := h.svc.Verify(r.Context(), doc)
	if err != nil {
		if errors.Is(err, domain.ErrNoRelevantRule) {
			api.Success(w, http.StatusOK, AuditResponse{Outcome: "no_relevant_rule"})
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AuditResponse{
		Outcome:    string(result.Outcome),
		Reason:     result.Reason,
		RuleSource: result.RuleSource,
	})
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/complyflow-labs/complyflow/internal/api"
	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/repository"
)

// streamPollInterval is how often the SSE stream checks for new notifications.
const streamPollInterval = 10 * time.Second

type NotificationRepository interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error)
	ListAfter(ctx context.Context, afterID int64) ([]*domain.Notification, error)
	LatestID(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type NotificationHandler struct {
	repo NotificationRepository
}

func NewNotificationHandler(repo NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

type NotificationResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	DocName     string `json:"doc_name"`
	SourceURL   string `json:"source_url,omitempty"`
	ImpactLevel string `json:"impact_level"`
	ActionDraft string `json:"action_draft,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func notificationToResponse(n *domain.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		DocName:     n.DocName,
		SourceURL:   n.SourceURL,
		ImpactLevel: string(n.ImpactLevel),
		ActionDraft: n.ActionDraft,
		CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, notificationToResponse(n))
	}
	api.Success(w, http.StatusOK, responses)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			api.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusNoContent, nil)
}

// Stream pushes new notifications over server-sent events, polling the store
// until the client disconnects.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	lastID, err := h.repo.LatestID(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fresh, err := h.repo.ListAfter(r.Context(), lastID)
			if err != nil {
				return
			}
			for _, n := range fresh {
				payload, err := json.Marshal(notificationToResponse(n))
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
				lastID = n.ID
			}
			if len(fresh) > 0 {
				flusher.Flush()
			}
		}
	}
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/complyflow-labs/complyflow/internal/api"
	"github.com/complyflow-labs/complyflow/internal/api/handlers"
	"github.com/complyflow-labs/complyflow/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler         *handlers.ChatHandler
	NotificationHandler *handlers.NotificationHandler
	AuditHandler        *handlers.AuditHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Respond)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/stream", cfg.NotificationHandler.Stream)
			r.Delete("/{id}", cfg.NotificationHandler.Delete)
		})

		r.Post("/audit", cfg.AuditHandler.Verify)
	})

	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"amlchat/internal/handlers"
	"amlchat/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Target service.ChatTarget
	// HealthChecks are run by GET /api/health, keyed by check name.
	HealthChecks map[string]handlers.Pinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.Target)
	historyHandler := handlers.NewHistoryHandler(deps.Target)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
		r.Method(http.MethodGet, "/conversations/{id}", historyHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dilemmagame/internal/api/apierr"
	"github.com/mcoot/dilemmagame/internal/api/handler"
	"github.com/mcoot/dilemmagame/internal/api/middleware"
	"github.com/mcoot/dilemmagame/internal/services/session"
	"github.com/mcoot/dilemmagame/internal/storage"
	"github.com/mcoot/dilemmagame/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *session.Coordinator
	Storage     storage.Storage
	Hub         *ws.Hub
	WSHandler   *ws.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	roomHandler := handler.NewRoomHandler(cfg.Coordinator)
	resultHandler := handler.NewResultHandler(cfg.Storage)
	healthHandler := handler.NewHealthHandler(
		func() int { return len(cfg.Coordinator.Rooms()) },
		cfg.Hub.ClientCount,
	)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Websocket endpoint; the logging wrapper passes Hijack through
	r.Handle("/ws", loggingMiddleware(cfg.WSHandler)).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/results", resultHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", resultHandler.Get).Methods(http.MethodGet)

	return r
}

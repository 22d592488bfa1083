package handler

import (
	"net/http"

	"github.com/mcoot/dilemmagame/internal/api/response"
)

// Counter reports a live gauge such as open rooms or connections
type Counter func() int

// HealthHandler reports liveness along with a few gauges
type HealthHandler struct {
	rooms       Counter
	connections Counter
}

// NewHealthHandler creates a new health handler. Nil counters report zero.
func NewHealthHandler(rooms, connections Counter) *HealthHandler {
	return &HealthHandler{rooms: rooms, connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		Rooms:       count(h.rooms),
		Connections: count(h.connections),
	})
}

func count(c Counter) int {
	if c == nil {
		return 0
	}
	return c()
}

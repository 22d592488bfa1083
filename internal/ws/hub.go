package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/dilemmagame/internal/dependencies/random"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
)

// Hub tracks every live WebSocket connection by its participant ID
type Hub struct {
	clients map[model.ParticipantID]*Client
	mu      sync.RWMutex
	closed  bool
	random  random.Random
	logger  *slog.Logger
}

// NewHub creates a new Hub
func NewHub(random random.Random, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ParticipantID]*Client),
		random:  random,
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Deliver encodes an event and queues it for one connection without blocking.
// Events for unknown connections, or connections with a full buffer, are dropped.
func (h *Hub) Deliver(conn model.ParticipantID, event model.Event) {
	frame, err := protocol.Encode(event)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		return
	}
	select {
	case client.send <- frame:
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("participant_id", string(conn)),
			slog.String("event", string(event.Type)))
	}
}

// register adds a client. Returns false once the hub is closed.
func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("participant_id", string(client.id)),
		slog.Int("total_clients", clientCount))
	return true
}

// unregister removes a client and closes its send channel
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closeSend()
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("participant_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// newID issues a participant ID for a fresh connection
func (h *Hub) newID() model.ParticipantID {
	return model.ParticipantID(h.random.NewID())
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clientCount := len(h.clients)
	for id, client := range h.clients {
		client.closeSend()
		delete(h.clients, id)
	}
	h.mu.Unlock()

	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
}

package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dilemmagame/internal/api/response"
	"github.com/mcoot/dilemmagame/internal/model"
)

// RoomSource is the read side of the session coordinator
type RoomSource interface {
	Rooms() []model.Snapshot
	Room(roomID model.RoomID) (model.Snapshot, error)
}

// RoomHandler serves read-only views of live rooms
type RoomHandler struct {
	rooms RoomSource
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomSource) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromSnapshots(h.rooms.Rooms()))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	snap, err := h.rooms.Room(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomDetail(snap))
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/dilemmagame/internal/api/response"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/storage"
)

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
)

// ResultHandler serves the match result archive
type ResultHandler struct {
	storage storage.Storage
}

// NewResultHandler creates a new result handler
func NewResultHandler(storage storage.Storage) *ResultHandler {
	return &ResultHandler{storage: storage}
}

// List handles GET /api/v1/results?room=&limit=
func (h *ResultHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultResultLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxResultLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and "+strconv.Itoa(maxResultLimit)))
			return
		}
		limit = n
	}

	results, err := h.storage.ListResults(r.Context(), model.RoomID(query.Get("room")), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultListFromModels(results))
}

// Get handles GET /api/v1/results/{id}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ResultID(mux.Vars(r)["id"])

	result, err := h.storage.GetResult(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultFromModel(result))
}

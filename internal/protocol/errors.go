package protocol

import (
	"errors"

	"github.com/mcoot/dilemmagame/internal/model"
)

// ErrorPayload is the data of every error event
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes sent to clients
const (
	CodeInvalidMessage           = "INVALID_MESSAGE"
	CodeInvalidDecision          = "INVALID_DECISION"
	CodeRoomAlreadyExists        = "ROOM_ALREADY_EXISTS"
	CodeRoomNotFound             = "ROOM_NOT_FOUND"
	CodeRoomFull                 = "ROOM_FULL"
	CodeAlreadyInRoom            = "ALREADY_IN_ROOM"
	CodeUnknownParticipant       = "UNKNOWN_PARTICIPANT"
	CodeNotAcceptingDecisions    = "NOT_ACCEPTING_DECISIONS"
	CodeDecisionAlreadySubmitted = "DECISION_ALREADY_SUBMITTED"
	CodeNotResolved              = "NOT_RESOLVED"
	CodeInternalError            = "INTERNAL_ERROR"
)

// ErrorFor maps an error onto a stable code and a client-facing message
func ErrorFor(err error) ErrorPayload {
	switch {
	case errors.Is(err, model.ErrInvalidDecision):
		return ErrorPayload{CodeInvalidDecision, "Choice must be cooperate or steal"}
	case errors.Is(err, model.ErrInvalidMessage):
		return ErrorPayload{CodeInvalidMessage, err.Error()}
	case errors.Is(err, model.ErrRoomAlreadyExists):
		return ErrorPayload{CodeRoomAlreadyExists, "Room already exists"}
	case errors.Is(err, model.ErrRoomNotFound):
		return ErrorPayload{CodeRoomNotFound, "Room not found"}
	case errors.Is(err, model.ErrRoomFull):
		return ErrorPayload{CodeRoomFull, "Room is full"}
	case errors.Is(err, model.ErrAlreadyInRoom):
		return ErrorPayload{CodeAlreadyInRoom, "Already in this room"}
	case errors.Is(err, model.ErrUnknownParticipant):
		return ErrorPayload{CodeUnknownParticipant, "Not a player in this room"}
	case errors.Is(err, model.ErrNotAcceptingDecisions):
		return ErrorPayload{CodeNotAcceptingDecisions, "Room is not accepting choices"}
	case errors.Is(err, model.ErrDecisionAlreadySubmitted):
		return ErrorPayload{CodeDecisionAlreadySubmitted, "Choice already made this round"}
	case errors.Is(err, model.ErrNotResolved):
		return ErrorPayload{CodeNotResolved, "Round has not finished"}
	default:
		return ErrorPayload{CodeInternalError, "Internal server error"}
	}
}

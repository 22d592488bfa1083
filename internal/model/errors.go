package model

import "errors"

// Common errors used across the application
var (
	// Registry errors
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")

	// Room errors
	ErrRoomFull                 = errors.New("room is full")
	ErrAlreadyInRoom            = errors.New("participant is already in room")
	ErrUnknownParticipant       = errors.New("participant is not in room")
	ErrNotAcceptingDecisions    = errors.New("room is not accepting decisions")
	ErrDecisionAlreadySubmitted = errors.New("decision already submitted this round")
	ErrInvalidDecision          = errors.New("invalid decision")
	ErrNotResolved              = errors.New("round has not been resolved")

	// Protocol errors
	ErrInvalidMessage = errors.New("invalid message")

	// Archive errors
	ErrResultNotFound = errors.New("result not found")
)

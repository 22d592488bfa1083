package model

// EventType identifies an outbound notification
type EventType string

const (
	// Unicast events
	EventRoomCreated     EventType = "roomCreated"
	EventCreateRoomError EventType = "createRoomError"
	EventJoinError       EventType = "joinError"
	EventChoiceError     EventType = "choiceError"
	EventNextRoundError  EventType = "nextRoundError"
	EventError           EventType = "error"

	// Broadcast events, all carrying a room snapshot
	EventGameStart  EventType = "gameStart"
	EventRoundEnd   EventType = "roundEnd"
	EventNewRound   EventType = "newRound"
	EventGameEnd    EventType = "gameEnd"
	EventPlayerLeft EventType = "playerLeft"
)

// Event is a notification addressed to one or more connections
type Event struct {
	Type     EventType
	RoomID   RoomID
	Snapshot *Snapshot // nil for unicast events
	Err      error     // set for error events
}

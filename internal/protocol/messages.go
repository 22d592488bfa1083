package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/dilemmagame/internal/model"
)

// Inbound event names
const (
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "joinRoom"
	EventMakeChoice = "makeChoice"
	EventNextRound  = "nextRound"
)

// Field limits for inbound messages
const (
	MaxRoomIDLength = 64
	MaxNameLength   = 32
)

// Envelope is the framing shared by every message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is one of CreateRoom, JoinRoom, MakeChoice or NextRound
type Inbound interface {
	EventName() string
	validate() error
}

// CreateRoom asks for a new room. An empty RoomID asks the server to pick one.
type CreateRoom struct {
	RoomID     model.RoomID `json:"roomId"`
	PlayerName string       `json:"playerName"`
}

// JoinRoom asks to take the second seat in an existing room
type JoinRoom struct {
	RoomID     model.RoomID `json:"roomId"`
	PlayerName string       `json:"playerName"`
}

// MakeChoice commits a decision for the current round
type MakeChoice struct {
	RoomID   model.RoomID   `json:"roomId"`
	Decision model.Decision `json:"choice"`
}

// NextRound asks a resolved room to move on
type NextRound struct {
	RoomID model.RoomID `json:"roomId"`
}

func (CreateRoom) EventName() string { return EventCreateRoom }
func (JoinRoom) EventName() string   { return EventJoinRoom }
func (MakeChoice) EventName() string { return EventMakeChoice }
func (NextRound) EventName() string  { return EventNextRound }

func (m *CreateRoom) validate() error {
	m.PlayerName = strings.TrimSpace(m.PlayerName)
	m.RoomID = model.RoomID(strings.TrimSpace(string(m.RoomID)))
	if err := validateName(m.PlayerName); err != nil {
		return err
	}
	if m.RoomID == "" {
		return nil
	}
	return validateRoomID(m.RoomID)
}

func (m *JoinRoom) validate() error {
	m.PlayerName = strings.TrimSpace(m.PlayerName)
	m.RoomID = model.RoomID(strings.TrimSpace(string(m.RoomID)))
	if err := validateName(m.PlayerName); err != nil {
		return err
	}
	return validateRoomID(m.RoomID)
}

func (m *MakeChoice) validate() error {
	if err := validateRoomID(m.RoomID); err != nil {
		return err
	}
	// Unknown choices pass through so the room rejects them as a choiceError
	m.Decision = model.Decision(strings.ToLower(strings.TrimSpace(string(m.Decision))))
	return nil
}

func (m *NextRound) validate() error {
	return validateRoomID(m.RoomID)
}

// Decode parses and validates a client frame.
// Errors wrap model.ErrInvalidMessage.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", model.ErrInvalidMessage)
	}

	var msg Inbound
	switch env.Event {
	case EventCreateRoom:
		msg = &CreateRoom{}
	case EventJoinRoom:
		msg = &JoinRoom{}
	case EventMakeChoice:
		msg = &MakeChoice{}
	case EventNextRound:
		msg = &NextRound{}
	default:
		return nil, fmt.Errorf("%w: unknown event %q", model.ErrInvalidMessage, env.Event)
	}

	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: %s requires data", model.ErrInvalidMessage, env.Event)
	}
	if err := json.Unmarshal(env.Data, msg); err != nil {
		return nil, fmt.Errorf("%w: malformed %s data", model.ErrInvalidMessage, env.Event)
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// EncodeInbound frames a client message. Used by clients and tests.
func EncodeInbound(msg Inbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: msg.EventName(), Data: data})
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: playerName is required", model.ErrInvalidMessage)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: playerName exceeds %d characters", model.ErrInvalidMessage, MaxNameLength)
	}
	return nil
}

func validateRoomID(id model.RoomID) error {
	if id == "" {
		return fmt.Errorf("%w: roomId is required", model.ErrInvalidMessage)
	}
	if utf8.RuneCountInString(string(id)) > MaxRoomIDLength {
		return fmt.Errorf("%w: roomId exceeds %d characters", model.ErrInvalidMessage, MaxRoomIDLength)
	}
	return nil
}

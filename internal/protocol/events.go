package protocol

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mcoot/dilemmagame/internal/model"
)

// Player is a seat in a room as sent to clients
type Player struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Choice *string `json:"choice"` // null until committed
}

// HistoryEntry is one resolved round as sent to clients
type HistoryEntry struct {
	Round   int               `json:"round"`
	Choices map[string]string `json:"choices"`
}

// Room is the snapshot payload carried by every broadcast event
type Room struct {
	RoomID      string         `json:"roomId"`
	State       string         `json:"state"`
	Round       int            `json:"round"`
	RoundCap    int            `json:"roundCap"`
	Players     []Player       `json:"players"`
	GameHistory []HistoryEntry `json:"gameHistory"`
}

// RoomCreated confirms a createRoom request
type RoomCreated struct {
	RoomID string `json:"roomId"`
}

// RoomFromSnapshot converts a model.Snapshot
func RoomFromSnapshot(s model.Snapshot) Room {
	players := make([]Player, len(s.Participants))
	for i, p := range s.Participants {
		players[i] = Player{
			ID:    string(p.ID),
			Name:  p.Name,
			Score: p.Score,
		}
		if p.Decision != model.DecisionUnset {
			choice := string(p.Decision)
			players[i].Choice = &choice
		}
	}

	history := make([]HistoryEntry, len(s.History))
	for i, rec := range s.History {
		choices := make(map[string]string, len(rec.Decisions))
		for id, d := range rec.Decisions {
			choices[string(id)] = string(d)
		}
		history[i] = HistoryEntry{Round: rec.Round, Choices: choices}
	}

	return Room{
		RoomID:      string(s.RoomID),
		State:       string(s.State),
		Round:       s.Round,
		RoundCap:    s.RoundCap,
		Players:     players,
		GameHistory: history,
	}
}

// Totals returns each player's score keyed by name, sorted by name. Useful for display.
func (r Room) Totals() []string {
	lines := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		lines = append(lines, fmt.Sprintf("%s=%d", p.Name, p.Score))
	}
	sort.Strings(lines)
	return lines
}

// Encode frames an outbound event
func Encode(event model.Event) ([]byte, error) {
	var payload any
	switch {
	case event.Err != nil:
		payload = ErrorFor(event.Err)
	case event.Type == model.EventRoomCreated:
		payload = RoomCreated{RoomID: string(event.RoomID)}
	case event.Snapshot != nil:
		payload = RoomFromSnapshot(*event.Snapshot)
	default:
		return nil, fmt.Errorf("event %s has no payload", event.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: string(event.Type), Data: data})
}

// ServerMessage is an outbound frame as seen by a client
type ServerMessage struct {
	Event model.EventType
	Data  json.RawMessage
}

// DecodeServerMessage parses an outbound frame. Used by clients and tests.
func DecodeServerMessage(frame []byte) (ServerMessage, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: malformed envelope", model.ErrInvalidMessage)
	}
	return ServerMessage{Event: model.EventType(env.Event), Data: env.Data}, nil
}

// Room decodes the snapshot payload of a broadcast event
func (m ServerMessage) Room() (Room, error) {
	var room Room
	err := json.Unmarshal(m.Data, &room)
	return room, err
}

// ErrorData decodes the payload of an error event
func (m ServerMessage) ErrorData() (ErrorPayload, error) {
	var payload ErrorPayload
	err := json.Unmarshal(m.Data, &payload)
	return payload, err
}

// RoomCreated decodes the payload of a roomCreated event
func (m ServerMessage) RoomCreated() (RoomCreated, error) {
	var payload RoomCreated
	err := json.Unmarshal(m.Data, &payload)
	return payload, err
}

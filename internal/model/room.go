package model

// RoomID identifies a live room. Chosen by the creator (or generated)
type RoomID string

// ParticipantID is the opaque connection identity of a participant
type ParticipantID string

// RoomState represents the current phase of a room
type RoomState string

const (
	RoomStateAwaitingSecondPlayer RoomState = "awaiting_second_player"
	RoomStateRoundInProgress      RoomState = "round_in_progress"
	RoomStateRoundResolved        RoomState = "round_resolved"
	RoomStateEnded                RoomState = "ended"
)

// MaxParticipants is the number of seats in a room
const MaxParticipants = 2

// DefaultRoundCap is the number of rounds in a full session
const DefaultRoundCap = 10

// Participant is a seat in a room
type Participant struct {
	ID       ParticipantID
	Name     string
	Score    int
	Decision Decision // DecisionUnset until committed this round
}

// RoundRecord is the history entry for one resolved round
type RoundRecord struct {
	Round     int
	Decisions map[ParticipantID]Decision
}

// Snapshot is an immutable copy of a room's observable state
type Snapshot struct {
	RoomID       RoomID
	State        RoomState
	Round        int
	RoundCap     int
	Participants []Participant
	History      []RoundRecord
}

// GetParticipant returns the participant with the given ID, or nil if not found
func (s *Snapshot) GetParticipant(id ParticipantID) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// Redacted hides pending decisions while a round is still open.
// Resolved rounds are already public through History.
func (s Snapshot) Redacted() Snapshot {
	if s.State != RoomStateRoundInProgress {
		return s
	}
	participants := make([]Participant, len(s.Participants))
	copy(participants, s.Participants)
	for i := range participants {
		if participants[i].Decision.IsSet() {
			participants[i].Decision = DecisionHidden
		}
	}
	s.Participants = participants
	return s
}

package model

import "time"

// ResultID identifies an archived match
type ResultID string

// MatchOutcome describes how a session finished
type MatchOutcome string

const (
	OutcomeCompleted MatchOutcome = "completed" // Round cap reached
	OutcomeAbandoned MatchOutcome = "abandoned" // A participant left early
)

// FinalScore is a participant's standing at the end of a match
type FinalScore struct {
	ParticipantID ParticipantID
	Name          string
	Score         int
}

// MatchResult is the archived record of a finished session
type MatchResult struct {
	ID           ResultID
	RoomID       RoomID
	Outcome      MatchOutcome
	RoundsPlayed int
	Scores       []FinalScore
	Winner       ParticipantID // Empty if tie
	History      []RoundRecord
	EndedAt      time.Time
}

// IsTie returns true if no participant finished ahead
func (r *MatchResult) IsTie() bool {
	return r.Winner == ""
}

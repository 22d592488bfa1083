package response

import (
	"time"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
)

// Health is the body of GET /health
type Health struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// RoomSummary is a compact listing entry for a live room
type RoomSummary struct {
	RoomID       string   `json:"roomId"`
	State        string   `json:"state"`
	Round        int      `json:"round"`
	RoundCap     int      `json:"roundCap"`
	Participants []string `json:"players"`
}

// RoomSummaryFromSnapshot converts a model.Snapshot to a RoomSummary
func RoomSummaryFromSnapshot(s model.Snapshot) RoomSummary {
	names := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		names[i] = p.Name
	}
	return RoomSummary{
		RoomID:       string(s.RoomID),
		State:        string(s.State),
		Round:        s.Round,
		RoundCap:     s.RoundCap,
		Participants: names,
	}
}

// RoomList is the body of GET /rooms
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomListFromSnapshots builds a RoomList
func RoomListFromSnapshots(snaps []model.Snapshot) RoomList {
	rooms := make([]RoomSummary, len(snaps))
	for i, s := range snaps {
		rooms[i] = RoomSummaryFromSnapshot(s)
	}
	return RoomList{Rooms: rooms}
}

// RoomDetail returns the wire view of a room with uncommitted-round choices hidden
func RoomDetail(s model.Snapshot) protocol.Room {
	return protocol.RoomFromSnapshot(s.Redacted())
}

// Score is one participant's final score
type Score struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Result represents an archived match in API responses
type Result struct {
	ID           string                  `json:"id"`
	RoomID       string                  `json:"roomId"`
	Outcome      string                  `json:"outcome"`
	RoundsPlayed int                     `json:"roundsPlayed"`
	Scores       []Score                 `json:"scores"`
	Winner       *string                 `json:"winner"`
	History      []protocol.HistoryEntry `json:"gameHistory"`
	EndedAt      time.Time               `json:"endedAt"`
}

// ResultFromModel converts a model.MatchResult
func ResultFromModel(r *model.MatchResult) Result {
	scores := make([]Score, len(r.Scores))
	for i, s := range r.Scores {
		scores[i] = Score{PlayerID: string(s.ParticipantID), Name: s.Name, Score: s.Score}
	}

	history := make([]protocol.HistoryEntry, len(r.History))
	for i, rec := range r.History {
		choices := make(map[string]string, len(rec.Decisions))
		for id, d := range rec.Decisions {
			choices[string(id)] = string(d)
		}
		history[i] = protocol.HistoryEntry{Round: rec.Round, Choices: choices}
	}

	var winner *string
	if !r.IsTie() {
		w := string(r.Winner)
		winner = &w
	}

	return Result{
		ID:           string(r.ID),
		RoomID:       string(r.RoomID),
		Outcome:      string(r.Outcome),
		RoundsPlayed: r.RoundsPlayed,
		Scores:       scores,
		Winner:       winner,
		History:      history,
		EndedAt:      r.EndedAt,
	}
}

// ResultList is the body of GET /results
type ResultList struct {
	Results []Result `json:"results"`
}

// ResultListFromModels builds a ResultList
func ResultListFromModels(results []*model.MatchResult) ResultList {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = ResultFromModel(r)
	}
	return ResultList{Results: out}
}

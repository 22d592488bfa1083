package session

import (
	"context"
	"log/slog"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/services/scoring"
)

// buildResult summarises a finished session. departed holds seats that were
// vacated before the final snapshot was taken.
func (c *Coordinator) buildResult(snap model.Snapshot, outcome model.MatchOutcome, departed ...model.Participant) *model.MatchResult {
	participants := make([]model.Participant, 0, len(snap.Participants)+len(departed))
	participants = append(participants, snap.Participants...)
	participants = append(participants, departed...)

	scores := make([]model.FinalScore, len(participants))
	for i, p := range participants {
		scores[i] = model.FinalScore{
			ParticipantID: p.ID,
			Name:          p.Name,
			Score:         p.Score,
		}
	}

	return &model.MatchResult{
		ID:           model.ResultID(c.random.NewID()),
		RoomID:       snap.RoomID,
		Outcome:      outcome,
		RoundsPlayed: len(snap.History),
		Scores:       scores,
		Winner:       scoring.Winner(participants),
		History:      snap.History,
		EndedAt:      c.clock.Now(),
	}
}

// archive stores a finished match. Failures are logged and never reach players.
func (c *Coordinator) archive(ctx context.Context, result *model.MatchResult) {
	if result == nil || c.storage == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := c.storage.SaveResult(ctx, result); err != nil {
		c.logger.Error("failed to archive result",
			slog.String("room_id", string(result.RoomID)),
			slog.String("result_id", string(result.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.Info("result archived",
		slog.String("room_id", string(result.RoomID)),
		slog.String("result_id", string(result.ID)),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("rounds", result.RoundsPlayed),
	)
}

package scoring

import (
	"fmt"

	"github.com/mcoot/dilemmagame/internal/model"
)

// Payoffs awarded per round
const (
	Reward     = 3 // both cooperate
	Temptation = 5 // steal against a cooperator
	Sucker     = 0 // cooperate against a stealer
	Punishment = 1 // both steal
)

// Score returns the points each side earns for a single round.
// Both decisions must be set; an unset decision is a programming error.
func Score(a, b model.Decision) (int, int) {
	switch {
	case a == model.DecisionCooperate && b == model.DecisionCooperate:
		return Reward, Reward
	case a == model.DecisionCooperate && b == model.DecisionSteal:
		return Sucker, Temptation
	case a == model.DecisionSteal && b == model.DecisionCooperate:
		return Temptation, Sucker
	case a == model.DecisionSteal && b == model.DecisionSteal:
		return Punishment, Punishment
	}
	panic(fmt.Sprintf("scoring: unscorable decisions %q, %q", a, b))
}

// Winner returns the participant with the strictly highest score, or "" on a tie
func Winner(participants []model.Participant) model.ParticipantID {
	var winner model.ParticipantID
	best := -1
	tied := false
	for _, p := range participants {
		switch {
		case p.Score > best:
			best = p.Score
			winner = p.ID
			tied = false
		case p.Score == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return winner
}

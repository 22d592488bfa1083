package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dilemmagame/internal/model"
)

type ServiceSuite struct {
	suite.Suite
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// Payoff matrix tests

func (s *ServiceSuite) TestScoreMutualCooperation() {
	a, b := Score(model.DecisionCooperate, model.DecisionCooperate)
	s.Equal(3, a)
	s.Equal(3, b)
}

func (s *ServiceSuite) TestScoreCooperateAgainstSteal() {
	a, b := Score(model.DecisionCooperate, model.DecisionSteal)
	s.Equal(0, a)
	s.Equal(5, b)
}

func (s *ServiceSuite) TestScoreStealAgainstCooperate() {
	a, b := Score(model.DecisionSteal, model.DecisionCooperate)
	s.Equal(5, a)
	s.Equal(0, b)
}

func (s *ServiceSuite) TestScoreMutualSteal() {
	a, b := Score(model.DecisionSteal, model.DecisionSteal)
	s.Equal(1, a)
	s.Equal(1, b)
}

func (s *ServiceSuite) TestScoreIsSymmetric() {
	decisions := []model.Decision{model.DecisionCooperate, model.DecisionSteal}
	for _, x := range decisions {
		for _, y := range decisions {
			a, b := Score(x, y)
			b2, a2 := Score(y, x)
			s.Equal(a, a2, "%s vs %s", x, y)
			s.Equal(b, b2, "%s vs %s", x, y)
		}
	}
}

func (s *ServiceSuite) TestScorePanicsOnUnsetDecision() {
	s.Panics(func() {
		Score(model.DecisionUnset, model.DecisionSteal)
	})
}

// Winner tests

func (s *ServiceSuite) TestWinnerHighestScore() {
	winner := Winner([]model.Participant{
		{ID: "alice", Score: 12},
		{ID: "bob", Score: 17},
	})
	s.Equal(model.ParticipantID("bob"), winner)
}

func (s *ServiceSuite) TestWinnerTieIsEmpty() {
	winner := Winner([]model.Participant{
		{ID: "alice", Score: 9},
		{ID: "bob", Score: 9},
	})
	s.Empty(winner)
}

func (s *ServiceSuite) TestWinnerSingleParticipant() {
	winner := Winner([]model.Participant{{ID: "alice", Score: 0}})
	s.Equal(model.ParticipantID("alice"), winner)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dilemmagame/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	base    time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) result(id string, room string, offset time.Duration) *model.MatchResult {
	return &model.MatchResult{
		ID:           model.ResultID(id),
		RoomID:       model.RoomID(room),
		Outcome:      model.OutcomeCompleted,
		RoundsPlayed: 10,
		Scores: []model.FinalScore{
			{ParticipantID: "a", Name: "Alice", Score: 30},
			{ParticipantID: "b", Name: "Bob", Score: 30},
		},
		EndedAt: s.base.Add(offset),
	}
}

func (s *StorageSuite) TestSaveAndGetResult() {
	r := s.result("res-1", "R1", 0)

	err := s.storage.SaveResult(s.ctx, r)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetResult(s.ctx, "res-1")
	s.Require().NoError(err)
	s.Equal(r, retrieved)
}

func (s *StorageSuite) TestGetResultNotFound() {
	_, err := s.storage.GetResult(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrResultNotFound)
}

func (s *StorageSuite) TestDeleteResult() {
	_ = s.storage.SaveResult(s.ctx, s.result("res-1", "R1", 0))

	err := s.storage.DeleteResult(s.ctx, "res-1")
	s.Require().NoError(err)

	_, err = s.storage.GetResult(s.ctx, "res-1")
	s.ErrorIs(err, model.ErrResultNotFound)
}

func (s *StorageSuite) TestListResultsNewestFirst() {
	_ = s.storage.SaveResult(s.ctx, s.result("old", "R1", 0))
	_ = s.storage.SaveResult(s.ctx, s.result("new", "R2", 2*time.Minute))
	_ = s.storage.SaveResult(s.ctx, s.result("mid", "R1", time.Minute))

	results, err := s.storage.ListResults(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(model.ResultID("new"), results[0].ID)
	s.Equal(model.ResultID("mid"), results[1].ID)
	s.Equal(model.ResultID("old"), results[2].ID)
}

func (s *StorageSuite) TestListResultsFiltersByRoomAndLimit() {
	_ = s.storage.SaveResult(s.ctx, s.result("old", "R1", 0))
	_ = s.storage.SaveResult(s.ctx, s.result("new", "R2", 2*time.Minute))
	_ = s.storage.SaveResult(s.ctx, s.result("mid", "R1", time.Minute))

	results, err := s.storage.ListResults(s.ctx, "R1", 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(model.ResultID("mid"), results[0].ID)
}

package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dilemmagame/internal/config"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
	"github.com/mcoot/dilemmagame/internal/services/session"
)

const (
	host  model.ParticipantID = "conn-host"
	guest model.ParticipantID = "conn-guest"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithConfig(session.Config{RoundCap: 2})
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) playRound(roomID model.RoomID, a, b model.Decision) {
	s.app.Coordinator.MakeChoice(s.ctx, host, &protocol.MakeChoice{RoomID: roomID, Decision: a})
	s.app.Coordinator.MakeChoice(s.ctx, guest, &protocol.MakeChoice{RoomID: roomID, Decision: b})
}

// Test: Complete session from room creation to archived result
func (s *IntegrationSuite) TestCompleteSessionIsArchived() {
	s.app.MockRandom.QueueString("ROOM01")
	s.app.MockRandom.QueueID("result-1")

	// Step 1: Create a room with a generated code
	s.app.Coordinator.CreateRoom(s.ctx, host, &protocol.CreateRoom{PlayerName: "Host"})
	snap, err := s.app.Coordinator.Room("ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomStateAwaitingSecondPlayer, snap.State)

	// Step 2: Second player joins and the game starts
	s.app.Coordinator.JoinRoom(s.ctx, guest, &protocol.JoinRoom{RoomID: "ROOM01", PlayerName: "Guest"})
	snap, err = s.app.Coordinator.Room("ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomStateRoundInProgress, snap.State)
	s.Equal(1, snap.Round)

	// Step 3: Round 1, mutual cooperation
	s.playRound("ROOM01", model.DecisionCooperate, model.DecisionCooperate)
	s.app.Coordinator.NextRound(s.ctx, host, &protocol.NextRound{RoomID: "ROOM01"})

	// Step 4: Round 2, guest steals
	s.playRound("ROOM01", model.DecisionCooperate, model.DecisionSteal)
	snap, err = s.app.Coordinator.Room("ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomStateRoundResolved, snap.State)

	// Step 5: Advancing past the cap ends the game
	s.app.Coordinator.NextRound(s.ctx, guest, &protocol.NextRound{RoomID: "ROOM01"})
	snap, err = s.app.Coordinator.Room("ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomStateEnded, snap.State)

	result, err := s.app.Storage.GetResult(s.ctx, "result-1")
	s.Require().NoError(err)
	s.Equal(model.OutcomeCompleted, result.Outcome)
	s.Equal(2, result.RoundsPlayed)
	s.Equal(guest, result.Winner)
	s.Len(result.History, 2)

	scores := map[model.ParticipantID]int{}
	for _, fs := range result.Scores {
		scores[fs.ParticipantID] = fs.Score
	}
	s.Equal(3, scores[host])
	s.Equal(8, scores[guest])
}

// Test: Auto-advance moves the room on when the timer fires
func (s *IntegrationSuite) TestAutoAdvance() {
	s.Require().NoError(s.app.Close())
	s.app = NewTestAppWithConfig(session.Config{RoundCap: 3, AutoAdvanceDelay: 5 * time.Second})

	s.app.Coordinator.CreateRoom(s.ctx, host, &protocol.CreateRoom{RoomID: "AUTO", PlayerName: "Host"})
	s.app.Coordinator.JoinRoom(s.ctx, guest, &protocol.JoinRoom{RoomID: "AUTO", PlayerName: "Guest"})
	s.playRound("AUTO", model.DecisionSteal, model.DecisionSteal)

	s.app.MockClock.Advance(4 * time.Second)
	snap, err := s.app.Coordinator.Room("AUTO")
	s.Require().NoError(err)
	s.Equal(model.RoomStateRoundResolved, snap.State)

	s.app.MockClock.Advance(time.Second)
	snap, err = s.app.Coordinator.Room("AUTO")
	s.Require().NoError(err)
	s.Equal(model.RoomStateRoundInProgress, snap.State)
	s.Equal(2, snap.Round)
}

// Test: Leaving mid-game ends the room for the remaining player and archives an abandoned result
func (s *IntegrationSuite) TestLeavingMidGameArchivesAbandonedResult() {
	s.app.MockRandom.QueueID("abandoned-1")

	s.app.Coordinator.CreateRoom(s.ctx, host, &protocol.CreateRoom{RoomID: "LEFT", PlayerName: "Host"})
	s.app.Coordinator.JoinRoom(s.ctx, guest, &protocol.JoinRoom{RoomID: "LEFT", PlayerName: "Guest"})
	s.playRound("LEFT", model.DecisionSteal, model.DecisionCooperate)

	s.app.Coordinator.Disconnect(s.ctx, guest)

	snap, err := s.app.Coordinator.Room("LEFT")
	s.Require().NoError(err)
	s.Equal(model.RoomStateEnded, snap.State)
	s.Len(snap.Participants, 1)

	result, err := s.app.Storage.GetResult(s.ctx, "abandoned-1")
	s.Require().NoError(err)
	s.Equal(model.OutcomeAbandoned, result.Outcome)
	s.Equal(host, result.Winner)

	// Last one out destroys the room
	s.app.Coordinator.Disconnect(s.ctx, host)
	_, err = s.app.Coordinator.Room("LEFT")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal(0, s.app.Registry.Len())
}

func (s *IntegrationSuite) TestNewRejectsUnknownStorage() {
	_, err := New(Config{StorageType: "sqlite"})
	s.Error(err)

	_, err = New(Config{StorageType: config.StorageTypeRedis})
	s.Error(err)
}

func (s *IntegrationSuite) TestNewAcceptsLoadedStorageType() {
	s.T().Setenv("STORAGE_TYPE", config.StorageTypeMemory)
	cfg, err := config.Load()
	s.Require().NoError(err)

	app, err := New(Config{StorageType: cfg.StorageType})
	s.Require().NoError(err)
	defer app.Close()

	s.NotNil(app.Storage)
}

func (s *IntegrationSuite) TestNewDefaultsToMemory() {
	app, err := New(Config{})
	s.Require().NoError(err)
	defer app.Close()

	s.NotNil(app.Coordinator)
	s.NotNil(app.WSHandler)
}

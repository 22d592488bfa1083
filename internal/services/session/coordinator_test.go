package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/dilemmagame/internal/dependencies/mocks"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
	"github.com/mcoot/dilemmagame/internal/services/registry"
	"github.com/mcoot/dilemmagame/internal/storage/memory"
	"github.com/mcoot/dilemmagame/internal/testutil"
)

const (
	alice model.ParticipantID = "alice-conn"
	bob   model.ParticipantID = "bob-conn"
	carol model.ParticipantID = "carol-conn"
)

// recordingTransport captures delivered events per connection
type recordingTransport struct {
	mu     sync.Mutex
	events map[model.ParticipantID][]model.Event
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{events: make(map[model.ParticipantID][]model.Event)}
}

func (t *recordingTransport) Deliver(conn model.ParticipantID, event model.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[conn] = append(t.events[conn], event)
}

// take returns and clears the events delivered to conn
func (t *recordingTransport) take(conn model.ParticipantID) []model.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := t.events[conn]
	delete(t.events, conn)
	return events
}

func types(events []model.Event) []model.EventType {
	out := make([]model.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	registry    *registry.Registry
	transport   *recordingTransport
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.setup(Config{RoundCap: 10})
}

func (s *CoordinatorSuite) setup(cfg Config) {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.registry = registry.New(logger)
	s.transport = newRecordingTransport()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.coordinator = NewCoordinator(s.registry, s.storage, s.transport, s.clock, s.random, cfg, logger)
	s.ctx = context.Background()
}

func (s *CoordinatorSuite) create(conn model.ParticipantID, roomID model.RoomID, name string) {
	s.coordinator.Dispatch(s.ctx, conn, &protocol.CreateRoom{RoomID: roomID, PlayerName: name})
}

func (s *CoordinatorSuite) join(conn model.ParticipantID, roomID model.RoomID, name string) {
	s.coordinator.Dispatch(s.ctx, conn, &protocol.JoinRoom{RoomID: roomID, PlayerName: name})
}

func (s *CoordinatorSuite) choose(conn model.ParticipantID, roomID model.RoomID, d model.Decision) {
	s.coordinator.Dispatch(s.ctx, conn, &protocol.MakeChoice{RoomID: roomID, Decision: d})
}

func (s *CoordinatorSuite) next(conn model.ParticipantID, roomID model.RoomID) {
	s.coordinator.Dispatch(s.ctx, conn, &protocol.NextRound{RoomID: roomID})
}

// startGame creates R1 with Alice, seats Bob and clears the delivered events
func (s *CoordinatorSuite) startGame() {
	s.create(alice, "R1", "Alice")
	s.join(bob, "R1", "Bob")
	s.transport.take(alice)
	s.transport.take(bob)
}

func (s *CoordinatorSuite) requireSingle(conn model.ParticipantID, eventType model.EventType) model.Event {
	events := s.transport.take(conn)
	s.Require().Equal([]model.EventType{eventType}, types(events))
	return events[0]
}

// CreateRoom tests

func (s *CoordinatorSuite) TestCreateRoomConfirmsToCreator() {
	s.create(alice, "R1", "Alice")

	event := s.requireSingle(alice, model.EventRoomCreated)
	s.Equal(model.RoomID("R1"), event.RoomID)

	snap, err := s.coordinator.Room("R1")
	s.Require().NoError(err)
	s.Equal(model.RoomStateAwaitingSecondPlayer, snap.State)
}

func (s *CoordinatorSuite) TestCreateDuplicateRoomErrorsOnlyToRequester() {
	s.create(alice, "R1", "Alice")
	s.transport.take(alice)

	s.create(bob, "R1", "Bob")

	event := s.requireSingle(bob, model.EventCreateRoomError)
	s.ErrorIs(event.Err, model.ErrRoomAlreadyExists)
	s.Empty(s.transport.take(alice))
}

func (s *CoordinatorSuite) TestCreateRoomGeneratesCode() {
	s.random.QueueString("TAKEN1", "FRESH2")
	s.create(carol, "TAKEN1", "Carol")
	s.transport.take(carol)

	s.create(alice, "", "Alice")

	event := s.requireSingle(alice, model.EventRoomCreated)
	s.Equal(model.RoomID("FRESH2"), event.RoomID)
}

// JoinRoom tests

func (s *CoordinatorSuite) TestJoinBroadcastsGameStart() {
	s.create(alice, "R1", "Alice")
	s.transport.take(alice)

	s.join(bob, "R1", "Bob")

	for _, conn := range []model.ParticipantID{alice, bob} {
		event := s.requireSingle(conn, model.EventGameStart)
		s.Equal(model.RoomStateRoundInProgress, event.Snapshot.State)
		s.Equal(1, event.Snapshot.Round)
		s.Len(event.Snapshot.Participants, 2)
	}
}

func (s *CoordinatorSuite) TestJoinMissingRoomFails() {
	s.join(bob, "nope", "Bob")

	event := s.requireSingle(bob, model.EventJoinError)
	s.ErrorIs(event.Err, model.ErrRoomNotFound)
}

func (s *CoordinatorSuite) TestJoinFullRoomFails() {
	s.startGame()

	s.join(carol, "R1", "Carol")

	event := s.requireSingle(carol, model.EventJoinError)
	s.ErrorIs(event.Err, model.ErrRoomFull)
	s.Empty(s.transport.take(alice))
	s.Empty(s.transport.take(bob))
}

// Round tests

func (s *CoordinatorSuite) TestScenarioCooperateVersusSteal() {
	s.startGame()

	s.choose(alice, "R1", model.DecisionCooperate)
	s.Empty(s.transport.take(alice))
	s.Empty(s.transport.take(bob))

	s.choose(bob, "R1", model.DecisionSteal)
	for _, conn := range []model.ParticipantID{alice, bob} {
		event := s.requireSingle(conn, model.EventRoundEnd)
		snap := event.Snapshot
		s.Equal(model.RoomStateRoundResolved, snap.State)
		s.Equal(0, snap.GetParticipant(alice).Score)
		s.Equal(5, snap.GetParticipant(bob).Score)
		s.Require().Len(snap.History, 1)
		s.Equal(map[model.ParticipantID]model.Decision{
			alice: model.DecisionCooperate,
			bob:   model.DecisionSteal,
		}, snap.History[0].Decisions)
	}

	s.next(alice, "R1")
	for _, conn := range []model.ParticipantID{alice, bob} {
		event := s.requireSingle(conn, model.EventNewRound)
		s.Equal(2, event.Snapshot.Round)
		s.Equal(model.RoomStateRoundInProgress, event.Snapshot.State)
		for _, p := range event.Snapshot.Participants {
			s.Equal(model.DecisionUnset, p.Decision)
		}
	}
}

func (s *CoordinatorSuite) TestDuplicateChoiceErrorsOnlyToRequester() {
	s.startGame()
	s.choose(alice, "R1", model.DecisionCooperate)

	s.choose(alice, "R1", model.DecisionSteal)

	event := s.requireSingle(alice, model.EventChoiceError)
	s.ErrorIs(event.Err, model.ErrDecisionAlreadySubmitted)
	s.Empty(s.transport.take(bob))
}

func (s *CoordinatorSuite) TestUnknownChoiceIsAChoiceError() {
	s.startGame()

	s.choose(alice, "R1", model.Decision("defect"))

	event := s.requireSingle(alice, model.EventChoiceError)
	s.ErrorIs(event.Err, model.ErrInvalidDecision)
	s.Empty(s.transport.take(bob))
}

func (s *CoordinatorSuite) TestChoiceBeforeOpponentJoinsFails() {
	s.create(alice, "R1", "Alice")
	s.transport.take(alice)

	s.choose(alice, "R1", model.DecisionCooperate)

	event := s.requireSingle(alice, model.EventChoiceError)
	s.ErrorIs(event.Err, model.ErrNotAcceptingDecisions)
}

func (s *CoordinatorSuite) TestChoiceFromOutsiderFails() {
	s.startGame()

	s.choose(carol, "R1", model.DecisionSteal)

	event := s.requireSingle(carol, model.EventChoiceError)
	s.ErrorIs(event.Err, model.ErrUnknownParticipant)
}

func (s *CoordinatorSuite) TestNextRoundBeforeResolutionFails() {
	s.startGame()

	s.next(bob, "R1")

	event := s.requireSingle(bob, model.EventNextRoundError)
	s.ErrorIs(event.Err, model.ErrNotResolved)
	s.Empty(s.transport.take(alice))
}

func (s *CoordinatorSuite) TestNextRoundFromOutsiderFails() {
	s.startGame()
	s.choose(alice, "R1", model.DecisionSteal)
	s.choose(bob, "R1", model.DecisionSteal)
	s.transport.take(alice)
	s.transport.take(bob)

	s.next(carol, "R1")

	event := s.requireSingle(carol, model.EventNextRoundError)
	s.ErrorIs(event.Err, model.ErrUnknownParticipant)
	snap, err := s.coordinator.Room("R1")
	s.Require().NoError(err)
	s.Equal(1, snap.Round)
}

func (s *CoordinatorSuite) TestConcurrentChoicesResolveOnce() {
	s.startGame()

	var wg sync.WaitGroup
	for _, conn := range []model.ParticipantID{alice, bob} {
		wg.Add(1)
		go func(conn model.ParticipantID) {
			defer wg.Done()
			s.choose(conn, "R1", model.DecisionCooperate)
		}(conn)
	}
	wg.Wait()

	s.requireSingle(alice, model.EventRoundEnd)
	s.requireSingle(bob, model.EventRoundEnd)
}

func (s *CoordinatorSuite) TestFullGameEndsAndArchives() {
	s.startGame()

	for round := 1; round <= 10; round++ {
		s.choose(alice, "R1", model.DecisionCooperate)
		s.choose(bob, "R1", model.DecisionSteal)
		s.next(alice, "R1")
	}

	events := s.transport.take(bob)
	last := events[len(events)-1]
	s.Equal(model.EventGameEnd, last.Type)
	s.Equal(model.RoomStateEnded, last.Snapshot.State)
	s.Equal(50, last.Snapshot.GetParticipant(bob).Score)

	results, err := s.storage.ListResults(s.ctx, "R1", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	result := results[0]
	s.Equal(model.OutcomeCompleted, result.Outcome)
	s.Equal(10, result.RoundsPlayed)
	s.Equal(bob, result.Winner)
	s.Len(result.History, 10)
	s.Equal(s.clock.Now(), result.EndedAt)

	s.transport.take(alice)
	s.choose(alice, "R1", model.DecisionCooperate)
	event := s.requireSingle(alice, model.EventChoiceError)
	s.ErrorIs(event.Err, model.ErrNotAcceptingDecisions)
}

// Auto-advance tests

func (s *CoordinatorSuite) TestAutoAdvanceBroadcastsNewRound() {
	s.setup(Config{RoundCap: 10, AutoAdvanceDelay: 5 * time.Second})
	s.startGame()
	s.choose(alice, "R1", model.DecisionCooperate)
	s.choose(bob, "R1", model.DecisionCooperate)
	s.requireSingle(alice, model.EventRoundEnd)
	s.requireSingle(bob, model.EventRoundEnd)

	s.clock.Advance(5 * time.Second)

	event := s.requireSingle(alice, model.EventNewRound)
	s.Equal(2, event.Snapshot.Round)
	s.requireSingle(bob, model.EventNewRound)
}

func (s *CoordinatorSuite) TestExplicitNextRoundCancelsAutoAdvance() {
	s.setup(Config{RoundCap: 10, AutoAdvanceDelay: 5 * time.Second})
	s.startGame()
	s.choose(alice, "R1", model.DecisionCooperate)
	s.choose(bob, "R1", model.DecisionCooperate)
	s.next(bob, "R1")
	s.transport.take(alice)
	s.transport.take(bob)

	s.clock.Advance(time.Minute)

	s.Empty(s.transport.take(alice))
	snap, err := s.coordinator.Room("R1")
	s.Require().NoError(err)
	s.Equal(2, snap.Round)
}

func (s *CoordinatorSuite) TestAutoAdvanceEndsFinalRound() {
	s.setup(Config{RoundCap: 1, AutoAdvanceDelay: time.Second})
	s.startGame()
	s.choose(alice, "R1", model.DecisionSteal)
	s.choose(bob, "R1", model.DecisionSteal)
	s.transport.take(alice)
	s.transport.take(bob)

	s.clock.Advance(time.Second)

	event := s.requireSingle(alice, model.EventGameEnd)
	s.Equal(model.RoomStateEnded, event.Snapshot.State)
	results, err := s.storage.ListResults(s.ctx, "R1", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.True(results[0].IsTie())
}

// Disconnect tests

func (s *CoordinatorSuite) TestScenarioDisconnectMidRound() {
	s.startGame()
	s.choose(alice, "R1", model.DecisionCooperate)
	s.choose(bob, "R1", model.DecisionCooperate)
	s.next(alice, "R1")
	s.transport.take(alice)
	s.transport.take(bob)

	s.coordinator.Disconnect(s.ctx, bob)

	event := s.requireSingle(alice, model.EventPlayerLeft)
	s.Equal(model.RoomStateEnded, event.Snapshot.State)
	s.Require().Len(event.Snapshot.Participants, 1)
	s.Equal(alice, event.Snapshot.Participants[0].ID)
	s.Equal(3, event.Snapshot.Participants[0].Score)
	s.Empty(s.transport.take(bob))

	s.join(carol, "R1", "Carol")
	joinErr := s.requireSingle(carol, model.EventJoinError)
	s.ErrorIs(joinErr.Err, model.ErrRoomFull)

	s.coordinator.Disconnect(s.ctx, alice)
	_, err := s.coordinator.Room("R1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Equal(0, s.registry.Len())

	s.create(carol, "R1", "Carol")
	s.requireSingle(carol, model.EventRoomCreated)
}

func (s *CoordinatorSuite) TestAbandonedGameIsArchived() {
	s.startGame()
	s.choose(alice, "R1", model.DecisionSteal)
	s.choose(bob, "R1", model.DecisionCooperate)

	s.coordinator.Disconnect(s.ctx, bob)

	results, err := s.storage.ListResults(s.ctx, "R1", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	result := results[0]
	s.Equal(model.OutcomeAbandoned, result.Outcome)
	s.Equal(1, result.RoundsPlayed)
	s.Len(result.Scores, 2)
	s.Equal(alice, result.Winner)
}

func (s *CoordinatorSuite) TestLeavingBeforeAnyRoundIsNotArchived() {
	s.startGame()

	s.coordinator.Disconnect(s.ctx, bob)

	results, err := s.storage.ListResults(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *CoordinatorSuite) TestCreatorLeavingEmptyRoomDestroysIt() {
	s.create(alice, "R1", "Alice")

	s.coordinator.Disconnect(s.ctx, alice)

	s.join(bob, "R1", "Bob")
	event := s.requireSingle(bob, model.EventJoinError)
	s.ErrorIs(event.Err, model.ErrRoomNotFound)
}

func (s *CoordinatorSuite) TestDisconnectLeavesEveryRoom() {
	s.create(alice, "R1", "Alice")
	s.create(alice, "R2", "Alice")
	s.join(bob, "R2", "Bob")
	s.transport.take(alice)
	s.transport.take(bob)

	s.coordinator.Disconnect(s.ctx, alice)

	_, err := s.coordinator.Room("R1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.requireSingle(bob, model.EventPlayerLeft)
	s.Len(s.coordinator.Rooms(), 1)
}

func (s *CoordinatorSuite) TestDisconnectUnknownConnectionIsNoOp() {
	s.startGame()

	s.coordinator.Disconnect(s.ctx, carol)

	s.Empty(s.transport.take(alice))
	s.Len(s.coordinator.Rooms(), 1)
}

func (s *CoordinatorSuite) TestCloseDrainsRooms() {
	s.startGame()

	s.coordinator.Close()

	s.Empty(s.coordinator.Rooms())
	s.Equal(0, s.registry.Len())
}

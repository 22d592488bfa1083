package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/dilemmagame/internal/dependencies/clock"
	"github.com/mcoot/dilemmagame/internal/dependencies/random"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/protocol"
	"github.com/mcoot/dilemmagame/internal/services/registry"
	"github.com/mcoot/dilemmagame/internal/services/room"
	"github.com/mcoot/dilemmagame/internal/storage"
)

const (
	// RoomCodeLength is the length of server-generated room codes
	RoomCodeLength = 6

	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxRoomCodeAttempts = 16
	archiveTimeout      = 5 * time.Second
)

// Transport delivers events to connections. Deliver must not block.
type Transport interface {
	Deliver(conn model.ParticipantID, event model.Event)
}

// Config holds session policy
type Config struct {
	RoundCap         int
	AutoAdvanceDelay time.Duration // 0 disables auto-advance
}

// DefaultConfig returns a ten-round session that auto-advances after five seconds
func DefaultConfig() Config {
	return Config{
		RoundCap:         model.DefaultRoundCap,
		AutoAdvanceDelay: 5 * time.Second,
	}
}

// group is the broadcast set for one room.
// seq is held across "mutate room, enqueue broadcast" so a room's events leave in mutation order.
type group struct {
	seq     sync.Mutex
	members map[model.ParticipantID]struct{}
}

// Coordinator translates connection events into room operations and
// routes the results back to connections
type Coordinator struct {
	registry  *registry.Registry
	storage   storage.Storage
	transport Transport
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger

	// mu guards groups and memberships. Lock order: mu, then registry, then room.
	mu          sync.Mutex
	groups      map[model.RoomID]*group
	memberships map[model.ParticipantID]map[model.RoomID]struct{}
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(
	registry *registry.Registry,
	storage storage.Storage,
	transport Transport,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		registry:    registry,
		storage:     storage,
		transport:   transport,
		clock:       clock,
		random:      random,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "session")),
		groups:      make(map[model.RoomID]*group),
		memberships: make(map[model.ParticipantID]map[model.RoomID]struct{}),
	}
}

// Dispatch routes a decoded client message to its handler
func (c *Coordinator) Dispatch(ctx context.Context, conn model.ParticipantID, msg protocol.Inbound) {
	switch m := msg.(type) {
	case *protocol.CreateRoom:
		c.CreateRoom(ctx, conn, m)
	case *protocol.JoinRoom:
		c.JoinRoom(ctx, conn, m)
	case *protocol.MakeChoice:
		c.MakeChoice(ctx, conn, m)
	case *protocol.NextRound:
		c.NextRound(ctx, conn, m)
	default:
		c.logger.Warn("unhandled message", slog.String("event", msg.EventName()))
	}
}

// CreateRoom registers a new room with the requester seated
func (c *Coordinator) CreateRoom(ctx context.Context, conn model.ParticipantID, req *protocol.CreateRoom) {
	roomID, err := c.createRoom(conn, req)
	if err != nil {
		c.logger.Info("create room rejected",
			slog.String("room_id", string(req.RoomID)),
			slog.String("participant_id", string(conn)),
			slog.String("error", err.Error()),
		)
		c.unicastError(conn, model.EventCreateRoomError, req.RoomID, err)
		return
	}

	c.logger.Info("room created",
		slog.String("room_id", string(roomID)),
		slog.String("participant_id", string(conn)),
	)
	c.transport.Deliver(conn, model.Event{Type: model.EventRoomCreated, RoomID: roomID})
}

func (c *Coordinator) createRoom(conn model.ParticipantID, req *protocol.CreateRoom) (model.RoomID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := c.roomOptions()

	if req.RoomID != "" {
		if _, err := c.registry.Create(req.RoomID, conn, req.PlayerName, opts); err != nil {
			return "", err
		}
		c.installGroupLocked(req.RoomID, conn)
		return req.RoomID, nil
	}

	// Generate unique room code
	for attempt := 0; attempt < maxRoomCodeAttempts; attempt++ {
		code := model.RoomID(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		if code == "" {
			break
		}
		_, err := c.registry.Create(code, conn, req.PlayerName, opts)
		if errors.Is(err, model.ErrRoomAlreadyExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		c.installGroupLocked(code, conn)
		return code, nil
	}
	return "", model.ErrRoomAlreadyExists
}

// JoinRoom seats the requester as the second participant and starts the game
func (c *Coordinator) JoinRoom(ctx context.Context, conn model.ParticipantID, req *protocol.JoinRoom) {
	rm, grp, err := c.resolve(req.RoomID)
	if err != nil {
		c.unicastError(conn, model.EventJoinError, req.RoomID, err)
		return
	}

	grp.seq.Lock()
	defer grp.seq.Unlock()

	snap, err := rm.Join(conn, req.PlayerName)
	if err != nil {
		c.logger.Info("join rejected",
			slog.String("room_id", string(req.RoomID)),
			slog.String("participant_id", string(conn)),
			slog.String("error", err.Error()),
		)
		c.unicastError(conn, model.EventJoinError, req.RoomID, err)
		return
	}

	c.addMember(req.RoomID, grp, conn)
	c.logger.Info("game started",
		slog.String("room_id", string(req.RoomID)),
		slog.String("participant_id", string(conn)),
	)
	c.broadcast(grp, model.EventGameStart, snap)
}

// MakeChoice commits the requester's decision and reveals the round once both are in
func (c *Coordinator) MakeChoice(ctx context.Context, conn model.ParticipantID, req *protocol.MakeChoice) {
	rm, grp, err := c.resolve(req.RoomID)
	if err != nil {
		c.unicastError(conn, model.EventChoiceError, req.RoomID, err)
		return
	}

	grp.seq.Lock()
	defer grp.seq.Unlock()

	out, err := rm.SubmitDecision(conn, req.Decision)
	if err != nil {
		c.logger.Debug("choice rejected",
			slog.String("room_id", string(req.RoomID)),
			slog.String("participant_id", string(conn)),
			slog.String("error", err.Error()),
		)
		c.unicastError(conn, model.EventChoiceError, req.RoomID, err)
		return
	}
	if !out.Resolved {
		return
	}

	c.logger.Info("round resolved",
		slog.String("room_id", string(req.RoomID)),
		slog.Int("round", out.Snapshot.Round),
	)
	c.broadcast(grp, model.EventRoundEnd, out.Snapshot)
}

// NextRound advances a resolved room on behalf of one of its participants
func (c *Coordinator) NextRound(ctx context.Context, conn model.ParticipantID, req *protocol.NextRound) {
	rm, grp, err := c.resolve(req.RoomID)
	if err != nil {
		c.unicastError(conn, model.EventNextRoundError, req.RoomID, err)
		return
	}
	if !c.isMember(req.RoomID, conn) {
		c.unicastError(conn, model.EventNextRoundError, req.RoomID, model.ErrUnknownParticipant)
		return
	}

	grp.seq.Lock()
	out, err := rm.Advance()
	if err != nil {
		grp.seq.Unlock()
		c.unicastError(conn, model.EventNextRoundError, req.RoomID, err)
		return
	}
	result := c.afterAdvanceLocked(grp, out)
	grp.seq.Unlock()

	c.archive(ctx, result)
}

// Disconnect removes a closed connection from every room it belongs to
func (c *Coordinator) Disconnect(ctx context.Context, conn model.ParticipantID) {
	for _, roomID := range c.roomsOf(conn) {
		if result := c.leave(roomID, conn); result != nil {
			c.archive(ctx, result)
		}
	}
}

func (c *Coordinator) leave(roomID model.RoomID, conn model.ParticipantID) *model.MatchResult {
	rm, grp, err := c.resolve(roomID)
	if err != nil {
		c.forget(roomID, conn)
		return nil
	}

	grp.seq.Lock()
	defer grp.seq.Unlock()

	out, err := rm.Remove(conn)
	c.forget(roomID, conn)
	if err != nil {
		c.logger.Debug("leave ignored",
			slog.String("room_id", string(roomID)),
			slog.String("participant_id", string(conn)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if out.Destroyed {
		c.registry.Release(rm)
		c.dropGroup(roomID, grp)
		c.logger.Info("room destroyed", slog.String("room_id", string(roomID)))
		return nil
	}

	c.logger.Info("player left",
		slog.String("room_id", string(roomID)),
		slog.String("participant_id", string(conn)),
	)
	c.broadcast(grp, model.EventPlayerLeft, out.Snapshot)

	if out.PreviousState == model.RoomStateEnded || len(out.Snapshot.History) == 0 {
		return nil
	}
	return c.buildResult(out.Snapshot, model.OutcomeAbandoned, out.Departed)
}

// autoAdvance is the room timer hook. It runs without any lock held.
func (c *Coordinator) autoAdvance(rm *room.Room, round int) {
	current, grp, err := c.resolve(rm.ID())
	if err != nil || current != rm {
		return
	}

	grp.seq.Lock()
	out, err := rm.AdvanceFrom(round)
	if err != nil {
		grp.seq.Unlock()
		c.logger.Debug("stale auto-advance",
			slog.String("room_id", string(rm.ID())),
			slog.Int("round", round),
		)
		return
	}
	result := c.afterAdvanceLocked(grp, out)
	grp.seq.Unlock()

	c.archive(context.Background(), result)
}

func (c *Coordinator) afterAdvanceLocked(grp *group, out room.AdvanceOutcome) *model.MatchResult {
	if !out.Ended {
		c.broadcast(grp, model.EventNewRound, out.Snapshot)
		return nil
	}

	c.logger.Info("game ended",
		slog.String("room_id", string(out.Snapshot.RoomID)),
		slog.Int("rounds", len(out.Snapshot.History)),
	)
	c.broadcast(grp, model.EventGameEnd, out.Snapshot)
	return c.buildResult(out.Snapshot, model.OutcomeCompleted)
}

// Rooms returns snapshots of every live room
func (c *Coordinator) Rooms() []model.Snapshot {
	return c.registry.List()
}

// Room returns a snapshot of one live room
func (c *Coordinator) Room(roomID model.RoomID) (model.Snapshot, error) {
	rm, err := c.registry.Lookup(roomID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return rm.Snapshot(), nil
}

// Close stops every room. Connections are closed by the transport.
func (c *Coordinator) Close() {
	c.registry.Drain()
	c.mu.Lock()
	c.groups = make(map[model.RoomID]*group)
	c.memberships = make(map[model.ParticipantID]map[model.RoomID]struct{})
	c.mu.Unlock()
}

func (c *Coordinator) roomOptions() room.Options {
	return room.Options{
		RoundCap:         c.cfg.RoundCap,
		AutoAdvanceDelay: c.cfg.AutoAdvanceDelay,
		Clock:            c.clock,
		OnAutoAdvance:    c.autoAdvance,
	}
}

// resolve returns a live room together with its broadcast group
func (c *Coordinator) resolve(roomID model.RoomID) (*room.Room, *group, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rm, err := c.registry.Lookup(roomID)
	if err != nil {
		return nil, nil, err
	}
	grp, ok := c.groups[roomID]
	if !ok {
		return nil, nil, model.ErrRoomNotFound
	}
	return rm, grp, nil
}

// installGroupLocked replaces any stale group left behind by a destroyed room
func (c *Coordinator) installGroupLocked(roomID model.RoomID, conn model.ParticipantID) {
	grp := &group{members: map[model.ParticipantID]struct{}{conn: {}}}
	c.groups[roomID] = grp
	c.addMembershipLocked(roomID, conn)
}

func (c *Coordinator) addMember(roomID model.RoomID, grp *group, conn model.ParticipantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grp.members[conn] = struct{}{}
	c.addMembershipLocked(roomID, conn)
}

func (c *Coordinator) addMembershipLocked(roomID model.RoomID, conn model.ParticipantID) {
	rooms, ok := c.memberships[conn]
	if !ok {
		rooms = make(map[model.RoomID]struct{})
		c.memberships[conn] = rooms
	}
	rooms[roomID] = struct{}{}
}

// forget removes conn from a room's group and the room from conn's memberships
func (c *Coordinator) forget(roomID model.RoomID, conn model.ParticipantID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if grp, ok := c.groups[roomID]; ok {
		delete(grp.members, conn)
	}
	c.forgetMembershipLocked(roomID, conn)
}

func (c *Coordinator) forgetMembershipLocked(roomID model.RoomID, conn model.ParticipantID) {
	rooms, ok := c.memberships[conn]
	if !ok {
		return
	}
	delete(rooms, roomID)
	if len(rooms) == 0 {
		delete(c.memberships, conn)
	}
}

// dropGroup forgets a room, unless the identifier has already been reused
func (c *Coordinator) dropGroup(roomID model.RoomID, grp *group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.groups[roomID]; !ok || current != grp {
		return
	}
	for conn := range grp.members {
		c.forgetMembershipLocked(roomID, conn)
	}
	delete(c.groups, roomID)
}

func (c *Coordinator) isMember(roomID model.RoomID, conn model.ParticipantID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.memberships[conn][roomID]
	return ok
}

func (c *Coordinator) roomsOf(conn model.ParticipantID) []model.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]model.RoomID, 0, len(c.memberships[conn]))
	for id := range c.memberships[conn] {
		rooms = append(rooms, id)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

func (c *Coordinator) members(grp *group) []model.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns := make([]model.ParticipantID, 0, len(grp.members))
	for conn := range grp.members {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i] < conns[j] })
	return conns
}

// broadcast enqueues a snapshot event for every member of the group
func (c *Coordinator) broadcast(grp *group, eventType model.EventType, snap model.Snapshot) {
	event := model.Event{Type: eventType, RoomID: snap.RoomID, Snapshot: &snap}
	for _, conn := range c.members(grp) {
		c.transport.Deliver(conn, event)
	}
}

func (c *Coordinator) unicastError(conn model.ParticipantID, eventType model.EventType, roomID model.RoomID, err error) {
	c.transport.Deliver(conn, model.Event{Type: eventType, RoomID: roomID, Err: err})
}

// Interface for dependency injection
type CoordinatorInterface interface {
	Dispatch(ctx context.Context, conn model.ParticipantID, msg protocol.Inbound)
	CreateRoom(ctx context.Context, conn model.ParticipantID, req *protocol.CreateRoom)
	JoinRoom(ctx context.Context, conn model.ParticipantID, req *protocol.JoinRoom)
	MakeChoice(ctx context.Context, conn model.ParticipantID, req *protocol.MakeChoice)
	NextRound(ctx context.Context, conn model.ParticipantID, req *protocol.NextRound)
	Disconnect(ctx context.Context, conn model.ParticipantID)
	Rooms() []model.Snapshot
	Room(roomID model.RoomID) (model.Snapshot, error)
}

var _ CoordinatorInterface = (*Coordinator)(nil)

package room

import (
	"sync"
	"time"

	"github.com/mcoot/dilemmagame/internal/dependencies/clock"
	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/services/scoring"
)

// AutoAdvanceFunc is called when a resolved round's auto-advance delay elapses.
// It runs on the timer goroutine with no room lock held.
type AutoAdvanceFunc func(rm *Room, round int)

// Options configures a room at construction time
type Options struct {
	RoundCap         int
	AutoAdvanceDelay time.Duration // 0 disables auto-advance
	Clock            clock.Clock
	OnAutoAdvance    AutoAdvanceFunc
}

// DefaultOptions returns a ten-round room without auto-advance
func DefaultOptions() Options {
	return Options{
		RoundCap: model.DefaultRoundCap,
		Clock:    clock.New(),
	}
}

// SubmitOutcome is the result of a successful SubmitDecision
type SubmitOutcome struct {
	Resolved bool // false while the opponent has yet to commit
	Snapshot model.Snapshot
}

// AdvanceOutcome is the result of a successful Advance
type AdvanceOutcome struct {
	Ended    bool // true when the resolved round was the last one
	Snapshot model.Snapshot
}

// RemoveOutcome is the result of a successful Remove
type RemoveOutcome struct {
	Destroyed     bool // true when no participants remain
	PreviousState model.RoomState
	Departed      model.Participant
	Snapshot      model.Snapshot
}

// Room is the state machine for a single two-player session.
// Every operation holds mu for its full duration and never blocks on I/O.
type Room struct {
	mu sync.Mutex

	id           model.RoomID
	state        model.RoomState
	participants []model.Participant
	round        int
	history      []model.RoundRecord
	destroyed    bool

	opts  Options
	timer clock.Timer
}

// New creates a room with the creator already seated
func New(id model.RoomID, creator model.ParticipantID, name string, opts Options) *Room {
	if opts.RoundCap <= 0 {
		opts.RoundCap = model.DefaultRoundCap
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Room{
		id:           id,
		state:        model.RoomStateAwaitingSecondPlayer,
		participants: []model.Participant{{ID: creator, Name: name}},
		round:        1,
		opts:         opts,
	}
}

// ID returns the room identifier
func (r *Room) ID() model.RoomID {
	return r.id
}

// Snapshot returns a copy of the current state
func (r *Room) Snapshot() model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Destroyed returns true once the last participant has left or the room was closed
func (r *Room) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

// Join seats the second participant and starts round 1
func (r *Room) Join(id model.ParticipantID, name string) (model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return model.Snapshot{}, model.ErrRoomNotFound
	}
	if r.indexOf(id) >= 0 {
		return model.Snapshot{}, model.ErrAlreadyInRoom
	}
	if len(r.participants) >= model.MaxParticipants || r.state != model.RoomStateAwaitingSecondPlayer {
		return model.Snapshot{}, model.ErrRoomFull
	}

	r.participants = append(r.participants, model.Participant{ID: id, Name: name})
	r.state = model.RoomStateRoundInProgress
	return r.snapshotLocked(), nil
}

// SubmitDecision records a participant's move for the current round.
// The round resolves, exactly once, when the second decision arrives.
func (r *Room) SubmitDecision(id model.ParticipantID, decision model.Decision) (SubmitOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return SubmitOutcome{}, model.ErrRoomNotFound
	}
	if _, err := model.ParseDecision(string(decision)); err != nil {
		return SubmitOutcome{}, err
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return SubmitOutcome{}, model.ErrUnknownParticipant
	}
	if r.state != model.RoomStateRoundInProgress {
		return SubmitOutcome{}, model.ErrNotAcceptingDecisions
	}
	if r.participants[idx].Decision.IsSet() {
		return SubmitOutcome{}, model.ErrDecisionAlreadySubmitted
	}

	r.participants[idx].Decision = decision

	if !r.allDecidedLocked() {
		return SubmitOutcome{Resolved: false, Snapshot: r.snapshotLocked()}, nil
	}

	r.resolveLocked()
	return SubmitOutcome{Resolved: true, Snapshot: r.snapshotLocked()}, nil
}

// Advance moves a resolved room to the next round, or ends it after the final round
func (r *Room) Advance() (AdvanceOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advanceLocked()
}

// AdvanceFrom advances only if the room is still sitting on the given resolved round.
// Used by auto-advance timers that may fire after the room has moved on.
func (r *Room) AdvanceFrom(round int) (AdvanceOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.round != round {
		return AdvanceOutcome{}, model.ErrNotResolved
	}
	return r.advanceLocked()
}

// Remove unseats a participant. The room ends if one remains and is destroyed if none do.
func (r *Room) Remove(id model.ParticipantID) (RemoveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		return RemoveOutcome{}, model.ErrRoomNotFound
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return RemoveOutcome{}, model.ErrUnknownParticipant
	}

	out := RemoveOutcome{PreviousState: r.state, Departed: r.participants[idx]}
	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)
	r.stopTimerLocked()
	r.state = model.RoomStateEnded

	if len(r.participants) == 0 {
		r.destroyed = true
		out.Destroyed = true
	}
	out.Snapshot = r.snapshotLocked()
	return out, nil
}

// Close stops pending timers and marks the room destroyed
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.destroyed = true
}

func (r *Room) advanceLocked() (AdvanceOutcome, error) {
	if r.destroyed {
		return AdvanceOutcome{}, model.ErrRoomNotFound
	}
	if r.state != model.RoomStateRoundResolved {
		return AdvanceOutcome{}, model.ErrNotResolved
	}

	r.stopTimerLocked()

	if r.round >= r.opts.RoundCap {
		r.state = model.RoomStateEnded
		return AdvanceOutcome{Ended: true, Snapshot: r.snapshotLocked()}, nil
	}

	r.round++
	for i := range r.participants {
		r.participants[i].Decision = model.DecisionUnset
	}
	r.state = model.RoomStateRoundInProgress
	return AdvanceOutcome{Ended: false, Snapshot: r.snapshotLocked()}, nil
}

func (r *Room) resolveLocked() {
	first, second := &r.participants[0], &r.participants[1]
	deltaFirst, deltaSecond := scoring.Score(first.Decision, second.Decision)
	first.Score += deltaFirst
	second.Score += deltaSecond

	r.history = append(r.history, model.RoundRecord{
		Round: r.round,
		Decisions: map[model.ParticipantID]model.Decision{
			first.ID:  first.Decision,
			second.ID: second.Decision,
		},
	})
	r.state = model.RoomStateRoundResolved
	r.scheduleAutoAdvanceLocked()
}

func (r *Room) scheduleAutoAdvanceLocked() {
	if r.opts.AutoAdvanceDelay <= 0 || r.opts.OnAutoAdvance == nil {
		return
	}
	r.stopTimerLocked()
	round, hook := r.round, r.opts.OnAutoAdvance
	r.timer = r.opts.Clock.AfterFunc(r.opts.AutoAdvanceDelay, func() {
		hook(r, round)
	})
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) allDecidedLocked() bool {
	if len(r.participants) < model.MaxParticipants {
		return false
	}
	for _, p := range r.participants {
		if !p.Decision.IsSet() {
			return false
		}
	}
	return true
}

func (r *Room) indexOf(id model.ParticipantID) int {
	for i := range r.participants {
		if r.participants[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) snapshotLocked() model.Snapshot {
	participants := make([]model.Participant, len(r.participants))
	copy(participants, r.participants)

	history := make([]model.RoundRecord, len(r.history))
	for i, rec := range r.history {
		decisions := make(map[model.ParticipantID]model.Decision, len(rec.Decisions))
		for k, v := range rec.Decisions {
			decisions[k] = v
		}
		history[i] = model.RoundRecord{Round: rec.Round, Decisions: decisions}
	}

	return model.Snapshot{
		RoomID:       r.id,
		State:        r.state,
		Round:        r.round,
		RoundCap:     r.opts.RoundCap,
		Participants: participants,
		History:      history,
	}
}

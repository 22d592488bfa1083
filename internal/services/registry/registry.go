package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/services/room"
)

// Registry maps room identifiers to live rooms.
// Create, Lookup and Delete are linearizable per identifier.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[model.RoomID]*room.Room
	logger *slog.Logger
}

// New creates an empty Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[model.RoomID]*room.Room),
		logger: logger,
	}
}

// Create registers a new room with the creator already seated
func (r *Registry) Create(id model.RoomID, creator model.ParticipantID, name string, opts room.Options) (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A destroyed room may still be mapped until its remover calls Release
	if existing, ok := r.rooms[id]; ok && !existing.Destroyed() {
		return nil, model.ErrRoomAlreadyExists
	}

	rm := room.New(id, creator, name, opts)
	r.rooms[id] = rm

	r.logger.Debug("room registered",
		slog.String("room_id", string(id)),
		slog.Int("live_rooms", len(r.rooms)),
	)
	return rm, nil
}

// Lookup returns the live room with the given identifier
func (r *Registry) Lookup(id model.RoomID) (*room.Room, error) {
	r.mu.RLock()
	rm, ok := r.rooms[id]
	r.mu.RUnlock()

	if !ok || rm.Destroyed() {
		return nil, model.ErrRoomNotFound
	}
	return rm, nil
}

// Delete removes the room and stops its timers. Deleting an absent room is a no-op.
func (r *Registry) Delete(id model.RoomID) {
	r.mu.Lock()
	rm, ok := r.rooms[id]
	delete(r.rooms, id)
	r.mu.Unlock()

	if ok {
		rm.Close()
		r.logger.Debug("room deleted", slog.String("room_id", string(id)))
	}
}

// Release removes rm only if it is still the room registered under its identifier
func (r *Registry) Release(rm *room.Room) bool {
	r.mu.Lock()
	current, ok := r.rooms[rm.ID()]
	if ok && current == rm {
		delete(r.rooms, rm.ID())
	}
	r.mu.Unlock()

	rm.Close()
	if ok && current == rm {
		r.logger.Debug("room released", slog.String("room_id", string(rm.ID())))
		return true
	}
	return false
}

// Len returns the number of mapped rooms
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// List returns snapshots of every live room ordered by identifier
func (r *Registry) List() []model.Snapshot {
	r.mu.RLock()
	rooms := make([]*room.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	snapshots := make([]model.Snapshot, 0, len(rooms))
	for _, rm := range rooms {
		if rm.Destroyed() {
			continue
		}
		snapshots = append(snapshots, rm.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].RoomID < snapshots[j].RoomID
	})
	return snapshots
}

// Drain closes every room and empties the registry
func (r *Registry) Drain() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[model.RoomID]*room.Room)
	r.mu.Unlock()

	for _, rm := range rooms {
		rm.Close()
	}
	r.logger.Info("registry drained", slog.Int("rooms_closed", len(rooms)))
}

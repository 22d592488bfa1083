package storage

import (
	"context"

	"github.com/mcoot/dilemmagame/internal/model"
)

// Storage defines the interface for the match result archive.
// Live rooms are never persisted; only finished sessions are.
type Storage interface {
	SaveResult(ctx context.Context, result *model.MatchResult) error
	GetResult(ctx context.Context, id model.ResultID) (*model.MatchResult, error)
	DeleteResult(ctx context.Context, id model.ResultID) error

	// ListResults returns results newest first. An empty roomID lists every room.
	// A limit <= 0 means no limit.
	ListResults(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchResult, error)
}

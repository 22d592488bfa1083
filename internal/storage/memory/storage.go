package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	results map[model.ResultID]*model.MatchResult
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		results: make(map[model.ResultID]*model.MatchResult),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = result
	return nil
}

func (s *Storage) GetResult(ctx context.Context, id model.ResultID) (*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return nil, model.ErrResultNotFound
	}
	return result, nil
}

func (s *Storage) DeleteResult(ctx context.Context, id model.ResultID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
	return nil
}

func (s *Storage) ListResults(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*model.MatchResult, 0, len(s.results))
	for _, r := range s.results {
		if roomID != "" && r.RoomID != roomID {
			continue
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].EndedAt.Equal(results[j].EndedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].EndedAt.After(results[j].EndedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

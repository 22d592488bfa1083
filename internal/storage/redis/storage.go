package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/dilemmagame/internal/model"
	"github.com/mcoot/dilemmagame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	member := redis.Z{
		Score:  float64(result.EndedAt.UnixMilli()),
		Member: string(result.ID),
	}
	roomIndex := roomResultsIndexKey(result.RoomID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, resultKey(result.ID), data, s.cfg.ResultTTL)
	pipe.ZAdd(ctx, resultsIndexKey(), member)
	pipe.ZAdd(ctx, roomIndex, member)
	if s.cfg.ResultTTL > 0 {
		pipe.Expire(ctx, roomIndex, s.cfg.ResultTTL) // Keep index TTL in sync
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetResult(ctx context.Context, id model.ResultID) (*model.MatchResult, error) {
	data, err := s.client.Get(ctx, resultKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrResultNotFound
		}
		return nil, err
	}

	var result model.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Storage) DeleteResult(ctx context.Context, id model.ResultID) error {
	result, err := s.GetResult(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrResultNotFound) {
			return s.client.ZRem(ctx, resultsIndexKey(), string(id)).Err()
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, resultKey(id))
	pipe.ZRem(ctx, resultsIndexKey(), string(id))
	pipe.ZRem(ctx, roomResultsIndexKey(result.RoomID), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListResults(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchResult, error) {
	indexKey := resultsIndexKey()
	if roomID != "" {
		indexKey = roomResultsIndexKey(roomID)
	}

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	var results []*model.MatchResult
	start := int64(0)
	for {
		ids, err := s.client.ZRevRange(ctx, indexKey, start, stop).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return results, nil
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = resultKey(model.ResultID(id))
		}
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}

		// Index members outlive expired results, prune them as we go
		var expired []any
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				expired = append(expired, ids[i])
				continue
			}
			var result model.MatchResult
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				return nil, err
			}
			results = append(results, &result)
		}

		if len(expired) == 0 || limit <= 0 {
			if len(expired) > 0 {
				if err := s.client.ZRem(ctx, indexKey, expired...).Err(); err != nil {
					return nil, err
				}
			}
			return results, nil
		}

		if err := s.client.ZRem(ctx, indexKey, expired...).Err(); err != nil {
			return nil, err
		}
		// Refill the page from where the pruned members were
		start = int64(len(results))
		stop = int64(limit - 1)
		if start > stop {
			return results, nil
		}
	}
}

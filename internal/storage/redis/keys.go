package redis

import (
	"fmt"

	"github.com/mcoot/dilemmagame/internal/model"
)

// Key prefix for all archive data
const keyPrefix = "dilemma"

// resultKey returns the Redis key for a MatchResult
func resultKey(id model.ResultID) string {
	return fmt.Sprintf("%s:result:%s", keyPrefix, id)
}

// resultsIndexKey returns the Redis key for the ZSET of all results scored by end time
func resultsIndexKey() string {
	return fmt.Sprintf("%s:idx:results", keyPrefix)
}

// roomResultsIndexKey returns the Redis key for the ZSET of results for one room
func roomResultsIndexKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:idx:room_results:%s", keyPrefix, roomID)
}

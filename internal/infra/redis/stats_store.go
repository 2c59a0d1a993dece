package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StatsStore keeps per-player aggregate counters in a Redis hash:
//
//	HINCRBY battle:stats:{userID} battles/wins/losses/ties/points/streak
//
// The win streak resets on any non-win; bestStreak tracks its high-water mark.
type StatsStore struct {
	client *redis.Client
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client}
}

func (s *StatsStore) RecordOutcome(ctx context.Context, userID string, won, tied bool, points int) error {
	key := s.key(userID)

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, key, "battles", 1)
	pipe.HIncrBy(ctx, key, "points", int64(points))
	var streakCmd *redis.IntCmd
	switch {
	case won:
		pipe.HIncrBy(ctx, key, "wins", 1)
		streakCmd = pipe.HIncrBy(ctx, key, "streak", 1)
	case tied:
		pipe.HIncrBy(ctx, key, "ties", 1)
		pipe.HSet(ctx, key, "streak", 0)
	default:
		pipe.HIncrBy(ctx, key, "losses", 1)
		pipe.HSet(ctx, key, "streak", 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if streakCmd != nil {
		streak := streakCmd.Val()
		best, _ := s.client.HGet(ctx, key, "bestStreak").Int64()
		if streak > best {
			if err := s.client.HSet(ctx, key, "bestStreak", streak).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats reads the raw counters for a user; absent fields read as zero.
func (s *StatsStore) Stats(ctx context.Context, userID string) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, val := range raw {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			out[field] = n
		}
	}
	return out, nil
}

func (s *StatsStore) key(userID string) string {
	return "battle:stats:" + userID
}

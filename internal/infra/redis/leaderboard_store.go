package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"mpt-command-center/internal/domain"
)

// LeaderboardStore keeps period entries in Redis so several API instances
// share one board.
//
//	HSET leaderboard:{period}:entries {userID} {entry json}
//	SADD leaderboard:{period}:events  {eventID}
//
// Both keys expire after the retention window once written.
type LeaderboardStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewLeaderboardStore(client *redis.Client, retention time.Duration) *LeaderboardStore {
	return &LeaderboardStore{client: client, retention: retention}
}

func (s *LeaderboardStore) Get(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	raw, err := s.client.HGet(ctx, s.entriesKey(period), userID).Bytes()
	if err == redis.Nil {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	var entry domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("decode entry %s: %w", userID, err)
	}
	return entry, nil
}

func (s *LeaderboardStore) List(ctx context.Context, period domain.Period) ([]domain.LeaderboardEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.entriesKey(period)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, 0, len(fields))
	for userID, raw := range fields {
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", userID, err)
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *LeaderboardStore) Save(ctx context.Context, period domain.Period, entries ...domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	key := s.entriesKey(period)
	values := make([]interface{}, 0, len(entries)*2)
	for _, entry := range entries {
		entry.Period = period
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", entry.UserID, err)
		}
		values = append(values, entry.UserID, raw)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, values...)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *LeaderboardStore) MarkEvent(ctx context.Context, period domain.Period, eventID string) (bool, error) {
	key := s.eventsKey(period)
	pipe := s.client.TxPipeline()
	added := pipe.SAdd(ctx, key, eventID)
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}

func (s *LeaderboardStore) UnmarkEvent(ctx context.Context, period domain.Period, eventID string) error {
	return s.client.SRem(ctx, s.eventsKey(period), eventID).Err()
}

func (s *LeaderboardStore) entriesKey(period domain.Period) string {
	return "leaderboard:" + string(period) + ":entries"
}

func (s *LeaderboardStore) eventsKey(period domain.Period) string {
	return "leaderboard:" + string(period) + ":events"
}

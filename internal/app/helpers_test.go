package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"mpt-command-center/internal/domain"
)

// recordingBoard captures score events instead of ranking them.
type recordingBoard struct {
	mu     sync.Mutex
	events []domain.ScoreEvent
	fail   bool
}

func (b *recordingBoard) RecordEvent(_ context.Context, ev domain.ScoreEvent) (domain.LeaderboardEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return domain.LeaderboardEntry{}, errors.New("board offline")
	}
	b.events = append(b.events, ev)
	return domain.LeaderboardEntry{UserID: ev.UserID}, nil
}

func (b *recordingBoard) ofKind(kind domain.EventKind) []domain.ScoreEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.ScoreEvent
	for _, ev := range b.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (b *recordingBoard) achievements() []string {
	var ids []string
	for _, ev := range b.ofKind(domain.EventAchievement) {
		ids = append(ids, ev.AchievementID)
	}
	return ids
}

// manualClock is a settable time source.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"mpt-command-center/internal/domain"
)

func TestLeaderboardStoreSavesAndLists(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr), 14*24*time.Hour)
	ctx := context.Background()
	period := domain.Period("2026-W42")

	err = store.Save(ctx, period,
		domain.LeaderboardEntry{UserID: "u2", TotalScore: 12, Rank: 2},
		domain.LeaderboardEntry{UserID: "u1", TotalScore: 30, Rank: 1, Signals: domain.Signals{QuizResults: map[string]int{"q1": 90}}},
	)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("leaderboard:2026-W42:entries") {
		t.Fatalf("expected entries hash")
	}
	if ttl := mr.TTL("leaderboard:2026-W42:entries"); ttl != 14*24*time.Hour {
		t.Fatalf("expected retention ttl, got %s", ttl)
	}

	entries, err := store.List(ctx, period)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "u1" || entries[0].Signals.QuizResults["q1"] != 90 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	entry, err := store.Get(ctx, period, "u2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.TotalScore != 12 || entry.Period != period {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, err := store.Get(ctx, period, "ghost"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestLeaderboardStoreMarkEventDedupes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr), time.Hour)
	ctx := context.Background()

	fresh, err := store.MarkEvent(ctx, "2026-W42", "quiz:a1")
	if err != nil || !fresh {
		t.Fatalf("expected fresh event, got %v %v", fresh, err)
	}
	fresh, err = store.MarkEvent(ctx, "2026-W42", "quiz:a1")
	if err != nil || fresh {
		t.Fatalf("expected duplicate event, got %v %v", fresh, err)
	}
	if ok, _ := mr.IsMember("leaderboard:2026-W42:events", "quiz:a1"); !ok {
		t.Fatalf("expected event id in set")
	}

	if err := store.UnmarkEvent(ctx, "2026-W42", "quiz:a1"); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	if ok, _ := mr.IsMember("leaderboard:2026-W42:events", "quiz:a1"); ok {
		t.Fatalf("expected event id removed")
	}
}

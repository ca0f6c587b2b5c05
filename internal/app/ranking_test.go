package app_test

import (
	"testing"
	"time"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
)

func TestAssignRanksOrdersByTotal(t *testing.T) {
	base := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	entries := []domain.LeaderboardEntry{
		{UserID: "c", TotalScore: 20, UpdatedAt: base},
		{UserID: "a", TotalScore: 75, UpdatedAt: base},
		{UserID: "b", TotalScore: 40, UpdatedAt: base},
	}

	ranked := app.AssignRanks(entries)

	want := []string{"a", "b", "c"}
	for i, e := range ranked {
		if e.UserID != want[i] || e.Rank != i+1 {
			t.Fatalf("position %d: got %s rank %d", i, e.UserID, e.Rank)
		}
		if i > 0 && ranked[i-1].TotalScore < e.TotalScore {
			t.Fatalf("ranks not monotonic at %d", i)
		}
	}
	if entries[0].UserID != "c" || entries[0].Rank != 0 {
		t.Fatalf("input slice modified: %+v", entries[0])
	}
}

func TestAssignRanksBreaksTies(t *testing.T) {
	early := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	entries := []domain.LeaderboardEntry{
		{UserID: "late", TotalScore: 30, UpdatedAt: late},
		{UserID: "zed", TotalScore: 30, UpdatedAt: early},
		{UserID: "amy", TotalScore: 30, UpdatedAt: early},
	}

	ranked := app.AssignRanks(entries)

	want := []string{"amy", "zed", "late"}
	for i, e := range ranked {
		if e.UserID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, e.UserID, want[i])
		}
	}
}

func TestAssignRanksTracksMovement(t *testing.T) {
	now := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	first := app.AssignRanks([]domain.LeaderboardEntry{
		{UserID: "a", TotalScore: 50, UpdatedAt: now},
		{UserID: "b", TotalScore: 10, UpdatedAt: now},
	})
	if first[0].RankChange != 0 || first[0].PreviousRank != 0 {
		t.Fatalf("fresh entries should have no movement: %+v", first[0])
	}

	// b overtakes a.
	first[1].TotalScore = 60
	second := app.AssignRanks(first)
	if second[0].UserID != "b" || second[0].PreviousRank != 2 || second[0].RankChange != 1 {
		t.Fatalf("unexpected leader %+v", second[0])
	}
	if second[1].UserID != "a" || second[1].PreviousRank != 1 || second[1].RankChange != -1 {
		t.Fatalf("unexpected runner-up %+v", second[1])
	}

	// A re-rank without movement keeps the last delta.
	third := app.AssignRanks(second)
	if third[0].PreviousRank != 2 || third[0].RankChange != 1 {
		t.Fatalf("movement lost on stable re-rank: %+v", third[0])
	}
}

func TestAssignRanksEmpty(t *testing.T) {
	if got := app.AssignRanks(nil); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

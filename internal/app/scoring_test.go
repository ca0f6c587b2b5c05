package app_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
)

func TestScorerCapsEverySubScore(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	entry := domain.LeaderboardEntry{UserID: "u1"}

	var err error
	events := []domain.ScoreEvent{
		{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q-a", Percentage: 100},
		{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q-b", Percentage: 100},
		{UserID: "u1", Kind: domain.EventChat, MessageCount: 250},
		{UserID: "u1", Kind: domain.EventStreak, StreakDays: 45},
	}
	for i := 0; i < 5; i++ {
		events = append(events, domain.ScoreEvent{UserID: "u1", Kind: domain.EventAchievement, AchievementID: fmt.Sprintf("a%d", i)})
	}
	for _, ev := range events {
		entry, err = scorer.Apply(entry, ev)
		if err != nil {
			t.Fatalf("apply %s: %v", ev.Kind, err)
		}
	}

	if entry.QuizScore != domain.MaxQuizScore {
		t.Fatalf("quiz score %d, want %d", entry.QuizScore, domain.MaxQuizScore)
	}
	if entry.ChatActivityScore != domain.MaxChatActivity {
		t.Fatalf("chat score %d, want %d", entry.ChatActivityScore, domain.MaxChatActivity)
	}
	if entry.StreakBonus != domain.MaxStreakBonus {
		t.Fatalf("streak bonus %d, want %d", entry.StreakBonus, domain.MaxStreakBonus)
	}
	if entry.AchievementBonus != domain.MaxAchievementBonus {
		t.Fatalf("achievement bonus %d, want %d", entry.AchievementBonus, domain.MaxAchievementBonus)
	}
	if entry.TotalScore != 100 {
		t.Fatalf("total %d, want 100", entry.TotalScore)
	}
}

func TestScorerTotalIsSumOfParts(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	entry := domain.LeaderboardEntry{UserID: "u1"}

	steps := []domain.ScoreEvent{
		{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q-a", Percentage: 80},
		{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q-b", Percentage: 55},
		{UserID: "u1", Kind: domain.EventChat},
		{UserID: "u1", Kind: domain.EventChat, MessageCount: 4},
		{UserID: "u1", Kind: domain.EventStreak, StreakDays: 3},
		{UserID: "u1", Kind: domain.EventAchievement, AchievementID: "first-quiz-passed"},
	}
	for _, ev := range steps {
		var err error
		entry, err = scorer.Apply(entry, ev)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		sum := entry.QuizScore + entry.ChatActivityScore + entry.StreakBonus + entry.AchievementBonus
		if entry.TotalScore != sum {
			t.Fatalf("total %d != sum of parts %d", entry.TotalScore, sum)
		}
	}

	// mean(80, 55) = 67.5 -> 27 points
	if entry.QuizScore != 27 {
		t.Fatalf("quiz score %d, want 27", entry.QuizScore)
	}
	if entry.ChatActivityScore != 5 || entry.StreakBonus != 6 || entry.AchievementBonus != 5 {
		t.Fatalf("unexpected parts %+v", entry)
	}
}

func TestScorerKeepsBestQuizAttempt(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	entry := domain.LeaderboardEntry{UserID: "u1"}

	entry, _ = scorer.Apply(entry, domain.ScoreEvent{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q", Percentage: 90})
	entry, _ = scorer.Apply(entry, domain.ScoreEvent{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q", Percentage: 40})

	if entry.Signals.QuizResults["q"] != 90 || entry.QuizScore != 36 {
		t.Fatalf("expected best attempt to be kept, got %+v", entry)
	}
}

func TestScorerAchievementsCountOnce(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	entry := domain.LeaderboardEntry{UserID: "u1"}
	ev := domain.ScoreEvent{UserID: "u1", Kind: domain.EventAchievement, AchievementID: "perfect-score"}

	entry, _ = scorer.Apply(entry, ev)
	entry, _ = scorer.Apply(entry, ev)

	if len(entry.Signals.Achievements) != 1 || entry.AchievementBonus != 5 {
		t.Fatalf("expected a single achievement, got %+v", entry.Signals.Achievements)
	}
}

func TestScorerDoesNotMutateInput(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	base := domain.LeaderboardEntry{
		UserID:  "u1",
		Signals: domain.Signals{QuizResults: map[string]int{"q": 50}},
	}
	if _, err := scorer.Apply(base, domain.ScoreEvent{UserID: "u1", Kind: domain.EventQuiz, QuizID: "q2", Percentage: 70}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(base.Signals.QuizResults) != 1 {
		t.Fatalf("input signals modified: %+v", base.Signals.QuizResults)
	}
}

func TestScorerRejectsInvalidEvents(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	cases := []struct {
		name string
		ev   domain.ScoreEvent
	}{
		{"missing user", domain.ScoreEvent{Kind: domain.EventChat}},
		{"unknown kind", domain.ScoreEvent{UserID: "u1", Kind: "login"}},
		{"quiz without id", domain.ScoreEvent{UserID: "u1", Kind: domain.EventQuiz, Percentage: 10}},
		{"negative chat", domain.ScoreEvent{UserID: "u1", Kind: domain.EventChat, MessageCount: -1}},
		{"negative streak", domain.ScoreEvent{UserID: "u1", Kind: domain.EventStreak, StreakDays: -2}},
		{"achievement without id", domain.ScoreEvent{UserID: "u1", Kind: domain.EventAchievement}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scorer.Apply(domain.LeaderboardEntry{UserID: "u1"}, tc.ev)
			if !errors.Is(err, domain.ErrInvalidEvent) {
				t.Fatalf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}
}

func TestScorerRecomputeFromSignals(t *testing.T) {
	scorer := app.NewScorer(app.DefaultWeights())
	entry := scorer.Recompute(domain.LeaderboardEntry{
		UserID:     "u1",
		TotalScore: 99, // stale
		Signals: domain.Signals{
			QuizResults:  map[string]int{"q": 100},
			ChatMessages: 10,
			StreakDays:   2,
		},
		UpdatedAt: time.Now(),
	})
	if entry.TotalScore != 40+10+4 {
		t.Fatalf("total %d, want 54", entry.TotalScore)
	}
}

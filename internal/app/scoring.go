package app

import (
	"fmt"
	"math"

	"mpt-command-center/internal/domain"
)

// Weights convert raw signals into points before capping.
type Weights struct {
	QuizPercent     float64 // points per percentage point of the mean quiz result
	ChatPerMessage  int
	StreakPerDay    int
	AchievementEach int
}

// DefaultWeights maps a perfect quiz mean to the full 40 points,
// 30 messages, a 10-day streak or 2 achievements to their caps.
func DefaultWeights() Weights {
	return Weights{
		QuizPercent:     0.40,
		ChatPerMessage:  1,
		StreakPerDay:    2,
		AchievementEach: 5,
	}
}

// Scorer merges score events into entry signals and derives capped sub-scores.
type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Validate rejects events that cannot be applied.
func (s *Scorer) Validate(ev domain.ScoreEvent) error {
	if ev.UserID == "" {
		return fmt.Errorf("%w: missing user", domain.ErrInvalidEvent)
	}
	switch ev.Kind {
	case domain.EventQuiz:
		if ev.QuizID == "" {
			return fmt.Errorf("%w: quiz event without quiz id", domain.ErrInvalidEvent)
		}
	case domain.EventChat:
		if ev.MessageCount < 0 {
			return fmt.Errorf("%w: negative message count", domain.ErrInvalidEvent)
		}
	case domain.EventStreak:
		if ev.StreakDays < 0 {
			return fmt.Errorf("%w: negative streak", domain.ErrInvalidEvent)
		}
	case domain.EventAchievement:
		if ev.AchievementID == "" {
			return fmt.Errorf("%w: achievement event without id", domain.ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidEvent, ev.Kind)
	}
	return nil
}

// Apply folds ev into entry's signals and recomputes every sub-score.
// The input entry is not modified.
func (s *Scorer) Apply(entry domain.LeaderboardEntry, ev domain.ScoreEvent) (domain.LeaderboardEntry, error) {
	if err := s.Validate(ev); err != nil {
		return entry, err
	}
	sig := cloneSignals(entry.Signals)

	switch ev.Kind {
	case domain.EventQuiz:
		pct := clamp(ev.Percentage, 0, 100)
		if prev, ok := sig.QuizResults[ev.QuizID]; !ok || pct > prev {
			sig.QuizResults[ev.QuizID] = pct
		}
	case domain.EventChat:
		count := ev.MessageCount
		if count == 0 {
			count = 1
		}
		sig.ChatMessages += count
	case domain.EventStreak:
		sig.StreakDays = ev.StreakDays
	case domain.EventAchievement:
		if !contains(sig.Achievements, ev.AchievementID) {
			sig.Achievements = append(sig.Achievements, ev.AchievementID)
		}
	}

	entry.Signals = sig
	return s.Recompute(entry), nil
}

// Recompute derives the sub-scores and total from entry.Signals.
func (s *Scorer) Recompute(entry domain.LeaderboardEntry) domain.LeaderboardEntry {
	sig := entry.Signals

	quiz := 0
	if n := len(sig.QuizResults); n > 0 {
		sum := 0
		for _, pct := range sig.QuizResults {
			sum += pct
		}
		mean := float64(sum) / float64(n)
		quiz = int(math.Round(mean * s.weights.QuizPercent))
	}

	entry.QuizScore = clamp(quiz, 0, domain.MaxQuizScore)
	entry.ChatActivityScore = clamp(sig.ChatMessages*s.weights.ChatPerMessage, 0, domain.MaxChatActivity)
	entry.StreakBonus = clamp(sig.StreakDays*s.weights.StreakPerDay, 0, domain.MaxStreakBonus)
	entry.AchievementBonus = clamp(len(sig.Achievements)*s.weights.AchievementEach, 0, domain.MaxAchievementBonus)
	entry.TotalScore = entry.QuizScore + entry.ChatActivityScore + entry.StreakBonus + entry.AchievementBonus
	return entry
}

func cloneSignals(in domain.Signals) domain.Signals {
	out := domain.Signals{
		QuizResults:  make(map[string]int, len(in.QuizResults)+1),
		ChatMessages: in.ChatMessages,
		StreakDays:   in.StreakDays,
		Achievements: append([]string(nil), in.Achievements...),
	}
	for k, v := range in.QuizResults {
		out.QuizResults[k] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func contains(items []string, needle string) bool {
	for _, item := range items {
		if item == needle {
			return true
		}
	}
	return false
}

package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Sub-score caps. totalScore can never exceed their sum (100).
const (
	MaxQuizScore        = 40
	MaxChatActivity     = 30
	MaxStreakBonus      = 20
	MaxAchievementBonus = 10
)

// EventKind names the signal a score event carries.
type EventKind string

const (
	EventQuiz        EventKind = "quiz"
	EventChat        EventKind = "chat"
	EventStreak      EventKind = "streak"
	EventAchievement EventKind = "achievement"
)

// ScoreEvent is a qualifying activity that triggers a score recomputation.
// ID is optional; when set the event is applied once per period.
type ScoreEvent struct {
	ID            string    `json:"id,omitempty"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Kind          EventKind `json:"kind"`
	QuizID        string    `json:"quizId,omitempty"`
	Percentage    int       `json:"percentage,omitempty"`
	MessageCount  int       `json:"messageCount,omitempty"`
	StreakDays    int       `json:"streakDays,omitempty"`
	AchievementID string    `json:"achievementId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Signals are the raw per-period inputs the sub-scores are derived from.
type Signals struct {
	QuizResults  map[string]int `json:"quizResults"`
	ChatMessages int            `json:"chatMessages"`
	StreakDays   int            `json:"streakDays"`
	Achievements []string       `json:"achievements"`
}

// LeaderboardEntry is one user's standing in one period.
type LeaderboardEntry struct {
	UserID            string    `json:"userId"`
	UserName          string    `json:"userName"`
	Period            Period    `json:"period"`
	TotalScore        int       `json:"totalScore"`
	QuizScore         int       `json:"quizScore"`
	ChatActivityScore int       `json:"chatActivityScore"`
	StreakBonus       int       `json:"streakBonus"`
	AchievementBonus  int       `json:"achievementBonus"`
	Rank              int       `json:"rank"`
	PreviousRank      int       `json:"previousRank"`
	RankChange        int       `json:"rankChange"`
	Signals           Signals   `json:"signals"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Leaderboard is an ordered snapshot of a period.
type Leaderboard struct {
	Period       Period             `json:"period"`
	Entries      []LeaderboardEntry `json:"entries"`
	Participants int                `json:"participants"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// UserRank describes where a single user sits in a period.
type UserRank struct {
	Entry        LeaderboardEntry `json:"entry"`
	Participants int              `json:"participants"`
	Percentile   float64          `json:"percentile"`
}

// Period is an ISO-8601 week key such as "2026-W42".
type Period string

// PeriodFor returns the ISO week containing t (evaluated in UTC).
func PeriodFor(t time.Time) Period {
	year, week := t.UTC().ISOWeek()
	return Period(fmt.Sprintf("%04d-W%02d", year, week))
}

// ParsePeriod validates a period key. An empty key resolves to the week of now.
func ParsePeriod(raw string, now time.Time) (Period, error) {
	if raw == "" {
		return PeriodFor(now), nil
	}
	if len(raw) != 8 || raw[4:6] != "-W" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	week, err := strconv.Atoi(raw[6:])
	if err != nil || year < 2000 || week < 1 || week > 53 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return Period(raw), nil
}

package app

import (
	"context"
	"time"

	"mpt-command-center/internal/domain"
)

// Dashboard is the admin overview.
type Dashboard struct {
	Users             int                       `json:"users"`
	Admins            int                       `json:"admins"`
	ActiveInvitations int                       `json:"activeInvitations"`
	Trades            int                       `json:"trades"`
	QuizAttempts      int                       `json:"quizAttempts"`
	ChatMessages      int                       `json:"chatMessages"`
	Period            domain.Period             `json:"period"`
	Participants      int                       `json:"participants"`
	Podium            []domain.LeaderboardEntry `json:"podium"`
	GeneratedAt       time.Time                 `json:"generatedAt"`
}

// AdminService aggregates counters across features.
type AdminService struct {
	docs  DocumentStore
	board *LeaderboardService
	now   func() time.Time
}

func NewAdminService(docs DocumentStore, board *LeaderboardService, now func() time.Time) *AdminService {
	return &AdminService{docs: docs, board: board, now: now}
}

// Dashboard counts documents per collection and reads the current podium.
func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	d := Dashboard{GeneratedAt: now, Period: domain.PeriodFor(now)}

	users, err := findAs[domain.User](ctx, s.docs, CollectionUsers, nil)
	if err != nil {
		return Dashboard{}, err
	}
	d.Users = len(users)
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			d.Admins++
		}
	}

	codes, err := findAs[domain.InvitationCode](ctx, s.docs, CollectionInvitations, nil)
	if err != nil {
		return Dashboard{}, err
	}
	for _, c := range codes {
		if c.Usable(now) {
			d.ActiveInvitations++
		}
	}

	counts := []struct {
		collection string
		dst        *int
	}{
		{CollectionTrades, &d.Trades},
		{CollectionQuizAttempts, &d.QuizAttempts},
		{CollectionChatMessages, &d.ChatMessages},
	}
	for _, c := range counts {
		raws, err := s.docs.Find(ctx, c.collection, nil)
		if err != nil {
			return Dashboard{}, err
		}
		*c.dst = len(raws)
	}

	podium, err := s.board.Podium(ctx, d.Period)
	if err != nil {
		return Dashboard{}, err
	}
	d.Participants = podium.Participants
	d.Podium = podium.Entries
	return d, nil
}

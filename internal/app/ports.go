package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mpt-command-center/internal/domain"
)

// Document collections.
const (
	CollectionUsers        = "users"
	CollectionInvitations  = "invitations"
	CollectionTrades       = "trades"
	CollectionModules      = "modules"
	CollectionQuizzes      = "quizzes"
	CollectionQuizAttempts = "quiz_attempts"
	CollectionChatThreads  = "chat_threads"
	CollectionChatMessages = "chat_messages"
)

// DocumentStore is the shared JSON document database every CRUD feature talks to.
// Filters match top-level string fields by equality.
type DocumentStore interface {
	Put(ctx context.Context, collection, id string, doc any) error
	Get(ctx context.Context, collection, id string, out any) error
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, filter map[string]string) ([]json.RawMessage, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// LeaderboardStore persists per-period entries and the IDs of applied events.
type LeaderboardStore interface {
	Get(ctx context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error)
	List(ctx context.Context, period domain.Period) ([]domain.LeaderboardEntry, error)
	Save(ctx context.Context, period domain.Period, entries ...domain.LeaderboardEntry) error
	// MarkEvent records eventID for period and reports whether it was new.
	MarkEvent(ctx context.Context, period domain.Period, eventID string) (bool, error)
	// UnmarkEvent forgets eventID so a failed application can be retried.
	UnmarkEvent(ctx context.Context, period domain.Period, eventID string) error
}

// ScoreRecorder is the slice of the leaderboard other features feed events into.
type ScoreRecorder interface {
	RecordEvent(ctx context.Context, ev domain.ScoreEvent) (domain.LeaderboardEntry, error)
}

// Identity is the authenticated caller, decoded from a bearer token.
type Identity struct {
	UserID string
	Name   string
	Role   domain.UserRole
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

func getAs[T any](ctx context.Context, docs DocumentStore, collection, id string) (T, error) {
	var out T
	if err := docs.Get(ctx, collection, id, &out); err != nil {
		return out, err
	}
	return out, nil
}

func findAs[T any](ctx context.Context, docs DocumentStore, collection string, filter map[string]string) ([]T, error) {
	raws, err := docs.Find(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// mapNotFound translates a store miss into the feature-specific error.
func mapNotFound(err, target error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return target
	}
	return err
}

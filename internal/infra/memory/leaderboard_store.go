package memory

import (
	"context"
	"sort"
	"sync"

	"mpt-command-center/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardStore.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[domain.Period]map[string]domain.LeaderboardEntry
	events  map[domain.Period]map[string]struct{}
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		entries: make(map[domain.Period]map[string]domain.LeaderboardEntry),
		events:  make(map[domain.Period]map[string]struct{}),
	}
}

func (s *LeaderboardStore) Get(_ context.Context, period domain.Period, userID string) (domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[period][userID]
	if !ok {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	return entry, nil
}

// List returns the period's entries ordered by user ID; callers rank them.
func (s *LeaderboardStore) List(_ context.Context, period domain.Period) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeaderboardEntry, 0, len(s.entries[period]))
	for _, entry := range s.entries[period] {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *LeaderboardStore) Save(_ context.Context, period domain.Period, entries ...domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.entries[period]
	if !ok {
		byUser = make(map[string]domain.LeaderboardEntry, len(entries))
		s.entries[period] = byUser
	}
	for _, entry := range entries {
		entry.Period = period
		byUser[entry.UserID] = entry
	}
	return nil
}

func (s *LeaderboardStore) MarkEvent(_ context.Context, period domain.Period, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen, ok := s.events[period]
	if !ok {
		seen = make(map[string]struct{})
		s.events[period] = seen
	}
	if _, dup := seen[eventID]; dup {
		return false, nil
	}
	seen[eventID] = struct{}{}
	return true, nil
}

func (s *LeaderboardStore) UnmarkEvent(_ context.Context, period domain.Period, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events[period], eventID)
	return nil
}

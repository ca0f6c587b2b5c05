package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

const (
	defaultBoardLimit = 50
	maxBoardLimit     = 100
	podiumSize        = 3
)

// LeaderboardService scores events, keeps period rankings current and fans
// refreshed boards out to live subscribers.
type LeaderboardService struct {
	store  LeaderboardStore
	scorer *Scorer
	log    *logger.Logger
	now    func() time.Time

	// mu serialises read-modify-write cycles on the store within this process.
	mu sync.Mutex

	subMu       sync.Mutex
	subscribers map[domain.Period]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(store LeaderboardStore, scorer *Scorer, log *logger.Logger) *LeaderboardService {
	return NewLeaderboardServiceWithClock(store, scorer, log, time.Now)
}

// NewLeaderboardServiceWithClock allows deterministic timestamps in tests.
func NewLeaderboardServiceWithClock(store LeaderboardStore, scorer *Scorer, log *logger.Logger, now func() time.Time) *LeaderboardService {
	return &LeaderboardService{
		store:       store,
		scorer:      scorer,
		log:         log.With("service", "LeaderboardService"),
		now:         now,
		subscribers: make(map[domain.Period]map[chan domain.Leaderboard]struct{}),
	}
}

// RecordEvent applies a qualifying event to the user's entry for the event's
// period, re-ranks that period and broadcasts the new board.
func (s *LeaderboardService) RecordEvent(ctx context.Context, ev domain.ScoreEvent) (domain.LeaderboardEntry, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}
	if err := s.scorer.Validate(ev); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	period := domain.PeriodFor(ev.OccurredAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID != "" {
		fresh, err := s.store.MarkEvent(ctx, period, ev.ID)
		if err != nil {
			return domain.LeaderboardEntry{}, fmt.Errorf("mark event: %w", err)
		}
		if !fresh {
			s.log.Debug("duplicate score event ignored", "event", ev.ID, "period", period)
			return s.store.Get(ctx, period, ev.UserID)
		}
	}

	entry, ranked, err := s.apply(ctx, period, ev)
	if err != nil {
		if ev.ID != "" {
			if uerr := s.store.UnmarkEvent(ctx, period, ev.ID); uerr != nil {
				s.log.Warn("failed to release score event", "event", ev.ID, "period", period, "error", uerr)
			}
		}
		return domain.LeaderboardEntry{}, err
	}
	s.broadcast(period, s.snapshot(period, ranked, defaultBoardLimit))
	return entry, nil
}

// apply folds ev into the period's entries and persists the re-ranked table.
func (s *LeaderboardService) apply(ctx context.Context, period domain.Period, ev domain.ScoreEvent) (domain.LeaderboardEntry, []domain.LeaderboardEntry, error) {
	entries, err := s.store.List(ctx, period)
	if err != nil {
		return domain.LeaderboardEntry{}, nil, fmt.Errorf("list entries: %w", err)
	}

	idx := -1
	for i := range entries {
		if entries[i].UserID == ev.UserID {
			idx = i
			break
		}
	}
	var entry domain.LeaderboardEntry
	if idx >= 0 {
		entry = entries[idx]
	} else {
		entry = domain.LeaderboardEntry{UserID: ev.UserID, Period: period}
	}
	if ev.UserName != "" {
		entry.UserName = ev.UserName
	}

	updated, err := s.scorer.Apply(entry, ev)
	if err != nil {
		return domain.LeaderboardEntry{}, nil, err
	}
	updated.UpdatedAt = ev.OccurredAt
	if idx >= 0 {
		entries[idx] = updated
	} else {
		entries = append(entries, updated)
	}

	ranked := AssignRanks(entries)
	if err := s.store.Save(ctx, period, ranked...); err != nil {
		return domain.LeaderboardEntry{}, nil, fmt.Errorf("save entries: %w", err)
	}
	for _, e := range ranked {
		if e.UserID == ev.UserID {
			return e, ranked, nil
		}
	}
	return updated, ranked, nil
}

// Leaderboard returns the top entries of a period. limit <= 0 means the default.
func (s *LeaderboardService) Leaderboard(ctx context.Context, period domain.Period, limit int) (domain.Leaderboard, error) {
	entries, err := s.store.List(ctx, period)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list entries: %w", err)
	}
	byRank(entries)
	return s.snapshot(period, entries, limit), nil
}

// Podium returns the top three of a period.
func (s *LeaderboardService) Podium(ctx context.Context, period domain.Period) (domain.Leaderboard, error) {
	return s.Leaderboard(ctx, period, podiumSize)
}

// UserRank locates a single user in a period with their percentile (top X%).
func (s *LeaderboardService) UserRank(ctx context.Context, period domain.Period, userID string) (domain.UserRank, error) {
	entries, err := s.store.List(ctx, period)
	if err != nil {
		return domain.UserRank{}, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		rank := domain.UserRank{Entry: e, Participants: len(entries), Percentile: 100}
		if e.Rank > 0 && len(entries) > 0 {
			rank.Percentile = float64(e.Rank) / float64(len(entries)) * 100
		}
		return rank, nil
	}
	return domain.UserRank{}, domain.ErrEntryNotFound
}

// Refresh re-ranks a period from its stored scores and pushes the board out.
func (s *LeaderboardService) Refresh(ctx context.Context, period domain.Period) (domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.List(ctx, period)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list entries: %w", err)
	}
	ranked := AssignRanks(entries)
	if len(ranked) > 0 {
		if err := s.store.Save(ctx, period, ranked...); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("save entries: %w", err)
		}
	}
	lb := s.snapshot(period, ranked, defaultBoardLimit)
	s.broadcast(period, lb)
	return lb, nil
}

// Recompute rebuilds every sub-score of a period from stored signals, then
// re-ranks. Entries that fail to save individually are skipped and counted.
func (s *LeaderboardService) Recompute(ctx context.Context, period domain.Period) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.store.List(ctx, period)
	if err != nil {
		return 0, 0, fmt.Errorf("list entries: %w", err)
	}
	for i := range entries {
		entries[i] = s.scorer.Recompute(entries[i])
	}
	ranked := AssignRanks(entries)

	saved, skipped := 0, 0
	for _, e := range ranked {
		if err := s.store.Save(ctx, period, e); err != nil {
			s.log.Warn("recompute: entry not saved", "user", e.UserID, "period", period, "error", err)
			skipped++
			continue
		}
		saved++
	}
	s.broadcast(period, s.snapshot(period, ranked, defaultBoardLimit))
	return saved, skipped, nil
}

// CurrentPeriod is the period events recorded now would land in.
func (s *LeaderboardService) CurrentPeriod() domain.Period {
	return domain.PeriodFor(s.now())
}

// Subscribe returns a channel that receives board updates for a period,
// starting with the current snapshot. The caller must invoke cancel.
func (s *LeaderboardService) Subscribe(ctx context.Context, period domain.Period) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, period, defaultBoardLimit)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	s.subMu.Lock()
	subs, ok := s.subscribers[period]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		s.subscribers[period] = subs
	}
	subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		subs := s.subscribers[period]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(s.subscribers, period)
		}
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) broadcast(period domain.Period, lb domain.Leaderboard) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers[period] {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: replace its oldest pending board with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (s *LeaderboardService) snapshot(period domain.Period, ranked []domain.LeaderboardEntry, limit int) domain.Leaderboard {
	if limit <= 0 {
		limit = defaultBoardLimit
	}
	if limit > maxBoardLimit {
		limit = maxBoardLimit
	}
	top := ranked
	if len(top) > limit {
		top = top[:limit]
	}
	entries := make([]domain.LeaderboardEntry, len(top))
	copy(entries, top)
	return domain.Leaderboard{
		Period:       period,
		Entries:      entries,
		Participants: len(ranked),
		UpdatedAt:    s.now(),
	}
}

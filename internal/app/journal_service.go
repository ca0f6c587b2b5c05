package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// Journal milestones that unlock achievements.
const (
	AchievementJournal10 = "journal-10-trades"
	AchievementStreak7   = "streak-7-days"
)

// TradeInput is the editable part of a journal entry. PnL is derived from
// prices and lot size when nil.
type TradeInput struct {
	Pair       string
	Direction  domain.Direction
	EntryPrice float64
	ExitPrice  float64
	LotSize    float64
	PnL        *float64
	Emotion    string
	Notes      string
	TradedAt   time.Time
}

// JournalService manages trade entries and feeds the streak signal.
type JournalService struct {
	docs  DocumentStore
	board ScoreRecorder
	log   *logger.Logger
	now   func() time.Time
}

func NewJournalService(docs DocumentStore, board ScoreRecorder, log *logger.Logger, now func() time.Time) *JournalService {
	return &JournalService{docs: docs, board: board, log: log.With("service", "JournalService"), now: now}
}

// Create journals a trade for the caller.
func (s *JournalService) Create(ctx context.Context, who Identity, in TradeInput) (domain.TradeEntry, error) {
	now := s.now()
	trade := domain.TradeEntry{
		ID:        uuid.NewString(),
		UserID:    who.UserID,
		CreatedAt: now,
	}
	if err := applyTradeInput(&trade, in, now); err != nil {
		return domain.TradeEntry{}, err
	}
	if err := s.docs.Put(ctx, CollectionTrades, trade.ID, trade); err != nil {
		return domain.TradeEntry{}, fmt.Errorf("store trade: %w", err)
	}
	s.emitMilestones(ctx, who)
	return trade, nil
}

// List returns the user's trades, most recent first.
func (s *JournalService) List(ctx context.Context, userID string) ([]domain.TradeEntry, error) {
	trades, err := findAs[domain.TradeEntry](ctx, s.docs, CollectionTrades, map[string]string{"userId": userID})
	if err != nil {
		return nil, err
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].TradedAt.After(trades[j].TradedAt) })
	return trades, nil
}

// Update replaces the editable fields of one of the caller's trades.
func (s *JournalService) Update(ctx context.Context, who Identity, id string, in TradeInput) (domain.TradeEntry, error) {
	trade, err := s.owned(ctx, who, id)
	if err != nil {
		return domain.TradeEntry{}, err
	}
	if err := applyTradeInput(&trade, in, s.now()); err != nil {
		return domain.TradeEntry{}, err
	}
	if err := s.docs.Put(ctx, CollectionTrades, trade.ID, trade); err != nil {
		return domain.TradeEntry{}, fmt.Errorf("store trade: %w", err)
	}
	s.emitMilestones(ctx, who)
	return trade, nil
}

// Delete removes one of the caller's trades.
func (s *JournalService) Delete(ctx context.Context, who Identity, id string) error {
	if _, err := s.owned(ctx, who, id); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, CollectionTrades, id); err != nil {
		return mapNotFound(err, domain.ErrTradeNotFound)
	}
	s.emitMilestones(ctx, who)
	return nil
}

// Stats aggregates the user's journal.
func (s *JournalService) Stats(ctx context.Context, userID string) (domain.JournalStats, error) {
	trades, err := s.List(ctx, userID)
	if err != nil {
		return domain.JournalStats{}, err
	}
	return computeStats(trades, s.now()), nil
}

func (s *JournalService) owned(ctx context.Context, who Identity, id string) (domain.TradeEntry, error) {
	trade, err := getAs[domain.TradeEntry](ctx, s.docs, CollectionTrades, id)
	if err != nil {
		return domain.TradeEntry{}, mapNotFound(err, domain.ErrTradeNotFound)
	}
	if trade.UserID != who.UserID {
		return domain.TradeEntry{}, domain.ErrTradeNotFound
	}
	return trade, nil
}

// emitMilestones pushes the journaling streak and achievements to the
// leaderboard. Failures are logged; the journal write already succeeded.
func (s *JournalService) emitMilestones(ctx context.Context, who Identity) {
	stats, err := s.Stats(ctx, who.UserID)
	if err != nil {
		s.log.Warn("journal stats for leaderboard failed", "user", who.UserID, "error", err)
		return
	}
	now := s.now()
	events := []domain.ScoreEvent{{
		UserID:     who.UserID,
		UserName:   who.Name,
		Kind:       domain.EventStreak,
		StreakDays: stats.StreakDays,
		OccurredAt: now,
	}}
	if stats.Trades >= 10 {
		events = append(events, achievementEvent(who, AchievementJournal10, now))
	}
	if stats.StreakDays >= 7 {
		events = append(events, achievementEvent(who, AchievementStreak7, now))
	}
	for _, ev := range events {
		if _, err := s.board.RecordEvent(ctx, ev); err != nil {
			s.log.Error("leaderboard update failed", "user", who.UserID, "kind", ev.Kind, "error", err)
		}
	}
}

func achievementEvent(who Identity, id string, at time.Time) domain.ScoreEvent {
	return domain.ScoreEvent{
		ID:            "achievement:" + id + ":" + who.UserID,
		UserID:        who.UserID,
		UserName:      who.Name,
		Kind:          domain.EventAchievement,
		AchievementID: id,
		OccurredAt:    at,
	}
}

func applyTradeInput(trade *domain.TradeEntry, in TradeInput, now time.Time) error {
	pair := strings.ToUpper(strings.TrimSpace(in.Pair))
	if pair == "" {
		return fmt.Errorf("%w: pair is required", domain.ErrInvalidTrade)
	}
	if in.Direction != domain.DirectionBuy && in.Direction != domain.DirectionSell {
		return fmt.Errorf("%w: direction must be buy or sell", domain.ErrInvalidTrade)
	}
	if in.EntryPrice <= 0 || in.ExitPrice <= 0 || in.LotSize <= 0 {
		return fmt.Errorf("%w: prices and lot size must be positive", domain.ErrInvalidTrade)
	}

	pnl := 0.0
	if in.PnL != nil {
		pnl = *in.PnL
	} else {
		diff := in.ExitPrice - in.EntryPrice
		if in.Direction == domain.DirectionSell {
			diff = -diff
		}
		pnl = math.Round(diff*in.LotSize*100) / 100
	}

	trade.Pair = pair
	trade.Direction = in.Direction
	trade.EntryPrice = in.EntryPrice
	trade.ExitPrice = in.ExitPrice
	trade.LotSize = in.LotSize
	trade.PnL = pnl
	trade.Outcome = outcomeFor(pnl)
	trade.Emotion = strings.TrimSpace(in.Emotion)
	trade.Notes = strings.TrimSpace(in.Notes)
	trade.TradedAt = in.TradedAt
	if trade.TradedAt.IsZero() {
		trade.TradedAt = now
	}
	trade.UpdatedAt = now
	return nil
}

func outcomeFor(pnl float64) domain.Outcome {
	switch {
	case pnl > 0:
		return domain.OutcomeWin
	case pnl < 0:
		return domain.OutcomeLoss
	default:
		return domain.OutcomeBreakeven
	}
}

func computeStats(trades []domain.TradeEntry, now time.Time) domain.JournalStats {
	stats := domain.JournalStats{Trades: len(trades)}
	for i, t := range trades {
		switch t.Outcome {
		case domain.OutcomeWin:
			stats.Wins++
		case domain.OutcomeLoss:
			stats.Losses++
		default:
			stats.Breakeven++
		}
		stats.TotalPnL += t.PnL
		if i == 0 || t.PnL > stats.BestTrade {
			stats.BestTrade = t.PnL
		}
		if i == 0 || t.PnL < stats.WorstTrade {
			stats.WorstTrade = t.PnL
		}
	}
	stats.TotalPnL = math.Round(stats.TotalPnL*100) / 100
	if stats.Trades > 0 {
		stats.WinRate = math.Round(float64(stats.Wins)/float64(stats.Trades)*10000) / 100
	}
	stats.StreakDays = journalStreak(trades, now)
	return stats
}

// journalStreak counts consecutive UTC days with at least one trade, ending
// today or yesterday. Older activity does not keep a streak alive.
func journalStreak(trades []domain.TradeEntry, now time.Time) int {
	days := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		days[t.TradedAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	today := now.UTC()
	start := today
	if _, ok := days[today.Format("2006-01-02")]; !ok {
		start = today.AddDate(0, 0, -1)
		if _, ok := days[start.Format("2006-01-02")]; !ok {
			return 0
		}
	}
	streak := 0
	for day := start; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			break
		}
		streak++
	}
	return streak
}

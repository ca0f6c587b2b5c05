package app

import (
	"context"
	"time"

	"mpt-command-center/internal/logger"
)

// Refresher periodically re-ranks the current period so polling clients and
// live subscribers see fresh standings even when no events arrive.
type Refresher struct {
	board    *LeaderboardService
	interval time.Duration
	log      *logger.Logger
}

func NewRefresher(board *LeaderboardService, interval time.Duration, log *logger.Logger) *Refresher {
	return &Refresher{board: board, interval: interval, log: log.With("component", "LeaderboardRefresher")}
}

// Run blocks until ctx is done. Refresh failures are logged and the loop continues.
func (r *Refresher) Run(ctx context.Context) error {
	if r.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			period := r.board.CurrentPeriod()
			lb, err := r.board.Refresh(ctx, period)
			if err != nil {
				r.log.Error("leaderboard refresh failed", "period", period, "error", err)
				continue
			}
			r.log.Debug("leaderboard refreshed", "period", period, "participants", lb.Participants)
		}
	}
}

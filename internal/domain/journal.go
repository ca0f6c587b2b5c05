package domain

import "time"

// Direction is the side of a trade.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Outcome classifies a closed trade.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// TradeEntry is one journaled trade.
type TradeEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Pair       string    `json:"pair"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice"`
	LotSize    float64   `json:"lotSize"`
	PnL        float64   `json:"pnl"`
	Outcome    Outcome   `json:"outcome"`
	Emotion    string    `json:"emotion,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	TradedAt   time.Time `json:"tradedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// JournalStats summarises a user's journal.
type JournalStats struct {
	Trades     int     `json:"trades"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Breakeven  int     `json:"breakeven"`
	WinRate    float64 `json:"winRate"`
	TotalPnL   float64 `json:"totalPnl"`
	BestTrade  float64 `json:"bestTrade"`
	WorstTrade float64 `json:"worstTrade"`
	StreakDays int     `json:"streakDays"`
}

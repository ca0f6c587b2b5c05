package app

import (
	"context"

	"mpt-command-center/internal/domain"
)

// Mentor produces the assistant reply for a conversation. history is the
// context window ending with the trader's newest message.
type Mentor interface {
	Reply(ctx context.Context, systemPrompt string, history []domain.ChatMessage) (string, error)
}

// OfflineMentor answers from a fixed playbook keyed by detected topic. It is
// used when no completion backend is configured.
type OfflineMentor struct{}

var offlineReplies = map[string]string{
	"risk management":    "Define your stop before you enter and keep risk per trade at 1-2% of the account. If the stop does not fit that size, the trade does not fit you.",
	"psychology":         "Notice the emotion, name it in your journal and step away from the chart for ten minutes. Discipline is following the plan when you would rather not.",
	"strategy":           "Write the setup down as rules: trigger, entry, stop, target. Backtest it on at least fifty samples before trading it live.",
	"technical analysis": "Start from the higher timeframe trend, mark the key support and resistance zones, then look for your trigger only at those zones.",
	"journaling":         "Log every trade with the setup, the emotion and a screenshot. Review the week every weekend and pick one mistake to fix.",
	"money management":   "Size positions from your stop distance, not from a fixed lot. Leverage magnifies mistakes faster than it magnifies skill.",
}

const offlineDefault = "Good question, warrior. Tell me the pair, the timeframe and your plan for the trade, and we will go through it step by step."

// Reply picks the playbook entry for the first topic in the last message.
func (OfflineMentor) Reply(_ context.Context, _ string, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return offlineDefault, nil
	}
	last := history[len(history)-1]
	for _, topic := range DetectTopics(last.Content) {
		if reply, ok := offlineReplies[topic]; ok {
			return reply, nil
		}
	}
	return offlineDefault, nil
}

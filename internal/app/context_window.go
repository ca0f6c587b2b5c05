package app

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"mpt-command-center/internal/domain"
)

const summaryPrefixLen = 80

// ContextBuilder picks the prior turns forwarded to the mentor.
// Window is the number of recent messages kept verbatim; MaxTokens, when
// positive, trims the oldest of those until the estimate fits.
type ContextBuilder struct {
	Window    int
	MaxTokens int
}

// topicKeywords drives the topic counts in older-turn summaries. Keywords
// match whole words; a trailing "s" on the last word is accepted.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"risk management", []string{"risk", "stop loss", "stoploss", "sl", "drawdown", "risk reward", "r:r"}},
	{"psychology", []string{"emotion", "fear", "greed", "fomo", "revenge", "discipline", "mindset", "tilt"}},
	{"strategy", []string{"strategy", "strategies", "setup", "entry", "entries", "exit", "plan", "backtest"}},
	{"technical analysis", []string{"support", "resistance", "trend", "candle", "indicator", "rsi", "macd", "fibonacci", "chart"}},
	{"journaling", []string{"journal", "review", "log my", "record"}},
	{"money management", []string{"lot size", "lotsize", "position size", "leverage", "margin", "capital", "compound"}},
}

// Build returns messages unchanged when they fit the window; otherwise a
// one-line system summary of the older turns followed by the recent window.
// The result never holds more than Window+1 messages.
func (b ContextBuilder) Build(messages []domain.ChatMessage) []domain.ChatMessage {
	window := b.Window
	if window <= 0 {
		window = 10
	}

	if len(messages) <= window {
		out := make([]domain.ChatMessage, len(messages))
		copy(out, messages)
		return b.trim(out, 0)
	}

	split := len(messages) - window
	older, recent := messages[:split], messages[split:]

	last := older[len(older)-1]
	summary := domain.ChatMessage{
		ID:        "summary",
		ThreadID:  last.ThreadID,
		UserID:    last.UserID,
		Role:      domain.RoleSystem,
		Content:   Summarize(older),
		Timestamp: last.Timestamp,
	}

	out := make([]domain.ChatMessage, 0, window+1)
	out = append(out, summary)
	out = append(out, recent...)
	return b.trim(out, 1)
}

// trim drops the oldest droppable messages (those after the first keep) while
// the estimate exceeds the budget. The newest message always stays.
func (b ContextBuilder) trim(msgs []domain.ChatMessage, keep int) []domain.ChatMessage {
	if b.MaxTokens <= 0 {
		return msgs
	}
	for EstimateMessagesTokens(msgs) > b.MaxTokens && len(msgs)-keep > 1 {
		msgs = append(msgs[:keep], msgs[keep+1:]...)
	}
	return msgs
}

// Summarize renders a one-line plain-text summary of older turns.
func Summarize(older []domain.ChatMessage) string {
	var first string
	users, assistants := 0, 0
	counts := make(map[string]int)

	for _, m := range older {
		switch m.Role {
		case domain.RoleUser:
			users++
			if first == "" {
				first = strings.TrimSpace(m.Content)
			}
		case domain.RoleAssistant:
			assistants++
		}
		for _, topic := range DetectTopics(m.Content) {
			counts[topic]++
		}
	}

	var sb strings.Builder
	sb.WriteString("Earlier in this conversation")
	if first != "" {
		fmt.Fprintf(&sb, " the trader first asked: %q", truncateRunes(first, summaryPrefixLen))
	}
	fmt.Fprintf(&sb, " (%d user messages, %d mentor replies)", users, assistants)

	if len(counts) > 0 {
		topics := make([]string, 0, len(counts))
		for topic := range counts {
			topics = append(topics, topic)
		}
		sort.Slice(topics, func(i, j int) bool {
			if counts[topics[i]] != counts[topics[j]] {
				return counts[topics[i]] > counts[topics[j]]
			}
			return topics[i] < topics[j]
		})
		parts := make([]string, 0, len(topics))
		for _, topic := range topics {
			parts = append(parts, fmt.Sprintf("%s (%d)", topic, counts[topic]))
		}
		sb.WriteString("; topics: ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	sb.WriteString(".")
	return sb.String()
}

// DetectTopics returns the trading topics mentioned in text, in table order.
func DetectTopics(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':'
	})
	for i, w := range words {
		words[i] = strings.Trim(w, ":")
	}
	var found []string
	for _, t := range topicKeywords {
		for _, kw := range t.keywords {
			if containsPhrase(words, strings.Fields(kw)) {
				found = append(found, t.topic)
				break
			}
		}
	}
	return found
}

func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, want := range phrase {
			got := words[i+j]
			if got != want && !(j == len(phrase)-1 && got == want+"s") {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// EstimateTokens approximates a token count as characters / 4, rounded up.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

// EstimateMessagesTokens sums EstimateTokens over message contents.
func EstimateMessagesTokens(msgs []domain.ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m.Content)
	}
	return total
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}

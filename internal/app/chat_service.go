package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

const threadTitleLen = 60

// DefaultSystemPrompt frames the mentor persona when config leaves it empty.
const DefaultSystemPrompt = "You are the MPT Warrior trading mentor. Coach traders on risk management, " +
	"trading psychology and disciplined execution. Never give financial advice or signals; teach process."

// ChatExchange is the pair of messages produced by one send.
type ChatExchange struct {
	UserMessage   domain.ChatMessage `json:"userMessage"`
	Reply         domain.ChatMessage `json:"reply"`
	ContextSize   int                `json:"contextSize"`
	ContextTokens int                `json:"contextTokens"`
}

// ChatService stores mentor threads and relays turns to the Mentor.
type ChatService struct {
	docs         DocumentStore
	mentor       Mentor
	builder      ContextBuilder
	systemPrompt string
	board        ScoreRecorder
	log          *logger.Logger
	now          func() time.Time
}

func NewChatService(docs DocumentStore, mentor Mentor, builder ContextBuilder, systemPrompt string, board ScoreRecorder, log *logger.Logger, now func() time.Time) *ChatService {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &ChatService{
		docs:         docs,
		mentor:       mentor,
		builder:      builder,
		systemPrompt: systemPrompt,
		board:        board,
		log:          log.With("service", "ChatService"),
		now:          now,
	}
}

// CreateThread opens a new conversation for the caller.
func (s *ChatService) CreateThread(ctx context.Context, who Identity, title string) (domain.ChatThread, error) {
	now := s.now()
	thread := domain.ChatThread{
		ID:        uuid.NewString(),
		UserID:    who.UserID,
		Title:     truncateRunes(strings.TrimSpace(title), threadTitleLen),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Put(ctx, CollectionChatThreads, thread.ID, thread); err != nil {
		return domain.ChatThread{}, fmt.Errorf("store thread: %w", err)
	}
	return thread, nil
}

// ListThreads returns the caller's threads, most recently active first.
func (s *ChatService) ListThreads(ctx context.Context, who Identity) ([]domain.ChatThread, error) {
	threads, err := findAs[domain.ChatThread](ctx, s.docs, CollectionChatThreads, map[string]string{"userId": who.UserID})
	if err != nil {
		return nil, err
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].UpdatedAt.After(threads[j].UpdatedAt) })
	return threads, nil
}

// Messages returns a thread's history in chronological order.
func (s *ChatService) Messages(ctx context.Context, who Identity, threadID string) ([]domain.ChatMessage, error) {
	if _, err := s.thread(ctx, who, threadID); err != nil {
		return nil, err
	}
	return s.history(ctx, threadID)
}

// SendMessage appends the trader's message, asks the mentor with a bounded
// context window and appends the reply. If the mentor fails the user message
// stays in the thread and ErrMentorUnavailable is returned.
func (s *ChatService) SendMessage(ctx context.Context, who Identity, threadID, content string) (ChatExchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatExchange{}, domain.ErrEmptyMessage
	}
	thread, err := s.thread(ctx, who, threadID)
	if err != nil {
		return ChatExchange{}, err
	}
	history, err := s.history(ctx, threadID)
	if err != nil {
		return ChatExchange{}, err
	}

	userMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		UserID:    who.UserID,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: s.nextTimestamp(history),
	}
	if err := s.docs.Put(ctx, CollectionChatMessages, userMsg.ID, userMsg); err != nil {
		return ChatExchange{}, fmt.Errorf("store message: %w", err)
	}
	history = append(history, userMsg)

	if thread.Title == "" {
		thread.Title = truncateRunes(content, threadTitleLen)
	}
	thread.UpdatedAt = userMsg.Timestamp
	s.touch(ctx, thread)
	s.emitChatEvent(ctx, who, userMsg)

	window := s.builder.Build(history)
	text, err := s.mentor.Reply(ctx, s.systemPrompt, window)
	if err != nil {
		s.log.Error("mentor reply failed", "thread", threadID, "error", err)
		if errors.Is(err, domain.ErrMentorUnavailable) {
			return ChatExchange{UserMessage: userMsg}, err
		}
		return ChatExchange{UserMessage: userMsg}, fmt.Errorf("%w: %v", domain.ErrMentorUnavailable, err)
	}

	reply := domain.ChatMessage{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		UserID:    who.UserID,
		Role:      domain.RoleAssistant,
		Content:   strings.TrimSpace(text),
		Timestamp: s.nextTimestamp(history),
	}
	if err := s.docs.Put(ctx, CollectionChatMessages, reply.ID, reply); err != nil {
		return ChatExchange{UserMessage: userMsg}, fmt.Errorf("store reply: %w", err)
	}
	thread.UpdatedAt = reply.Timestamp
	s.touch(ctx, thread)

	return ChatExchange{
		UserMessage:   userMsg,
		Reply:         reply,
		ContextSize:   len(window),
		ContextTokens: EstimateMessagesTokens(window),
	}, nil
}

func (s *ChatService) thread(ctx context.Context, who Identity, threadID string) (domain.ChatThread, error) {
	thread, err := getAs[domain.ChatThread](ctx, s.docs, CollectionChatThreads, threadID)
	if err != nil {
		return domain.ChatThread{}, mapNotFound(err, domain.ErrThreadNotFound)
	}
	if thread.UserID != who.UserID {
		return domain.ChatThread{}, domain.ErrThreadNotFound
	}
	return thread, nil
}

func (s *ChatService) history(ctx context.Context, threadID string) ([]domain.ChatMessage, error) {
	msgs, err := findAs[domain.ChatMessage](ctx, s.docs, CollectionChatMessages, map[string]string{"threadId": threadID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	return msgs, nil
}

// nextTimestamp keeps a thread strictly ordered even when the clock does not
// advance between turns.
func (s *ChatService) nextTimestamp(history []domain.ChatMessage) time.Time {
	now := s.now()
	if n := len(history); n > 0 {
		if last := history[n-1].Timestamp; !now.After(last) {
			return last.Add(time.Microsecond)
		}
	}
	return now
}

func (s *ChatService) touch(ctx context.Context, thread domain.ChatThread) {
	if err := s.docs.Put(ctx, CollectionChatThreads, thread.ID, thread); err != nil {
		s.log.Warn("thread update failed", "thread", thread.ID, "error", err)
	}
}

func (s *ChatService) emitChatEvent(ctx context.Context, who Identity, msg domain.ChatMessage) {
	ev := domain.ScoreEvent{
		ID:           "chat:" + msg.ID,
		UserID:       who.UserID,
		UserName:     who.Name,
		Kind:         domain.EventChat,
		MessageCount: 1,
		OccurredAt:   msg.Timestamp,
	}
	if _, err := s.board.RecordEvent(ctx, ev); err != nil {
		s.log.Error("leaderboard update failed", "user", who.UserID, "kind", ev.Kind, "error", err)
	}
}

package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/infra/memory"
	"mpt-command-center/internal/logger"
)

// scriptedMentor records the window it was given and replies or fails on demand.
type scriptedMentor struct {
	prompt string
	seen   []domain.ChatMessage
	err    error
}

func (m *scriptedMentor) Reply(_ context.Context, systemPrompt string, history []domain.ChatMessage) (string, error) {
	m.prompt = systemPrompt
	m.seen = append([]domain.ChatMessage(nil), history...)
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("  reply to %d messages  ", len(history)), nil
}

func newChat(mentor app.Mentor, window int) (*app.ChatService, *recordingBoard) {
	board := &recordingBoard{}
	// A frozen clock; message ordering must not depend on it advancing.
	now := func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	svc := app.NewChatService(memory.NewDocumentStore(), mentor, app.ContextBuilder{Window: window}, "", board, logger.Nop(), now)
	return svc, board
}

func TestSendMessageStoresBothTurns(t *testing.T) {
	mentor := &scriptedMentor{}
	chat, board := newChat(mentor, 10)
	ctx := context.Background()

	thread, err := chat.CreateThread(ctx, trader, "")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	ex, err := chat.SendMessage(ctx, trader, thread.ID, "  How do I size my position?  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if ex.UserMessage.Content != "How do I size my position?" || ex.Reply.Content != "reply to 1 messages" {
		t.Fatalf("unexpected exchange %+v", ex)
	}
	if !ex.Reply.Timestamp.After(ex.UserMessage.Timestamp) {
		t.Fatalf("reply not ordered after user message")
	}
	if ex.ContextSize != 1 || ex.ContextTokens != app.EstimateTokens(ex.UserMessage.Content) {
		t.Fatalf("unexpected context stats %+v", ex)
	}
	if mentor.prompt != app.DefaultSystemPrompt {
		t.Fatalf("default prompt not applied")
	}

	msgs, err := chat.Messages(ctx, trader, thread.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected history %+v", msgs)
	}

	threads, _ := chat.ListThreads(ctx, trader)
	if len(threads) != 1 || threads[0].Title != "How do I size my position?" {
		t.Fatalf("thread title not derived from first message: %+v", threads)
	}
	if got := board.ofKind(domain.EventChat); len(got) != 1 || got[0].ID != "chat:"+ex.UserMessage.ID {
		t.Fatalf("unexpected chat events %+v", got)
	}
}

func TestSendMessageBoundsMentorContext(t *testing.T) {
	mentor := &scriptedMentor{}
	chat, _ := newChat(mentor, 4)
	ctx := context.Background()
	thread, _ := chat.CreateThread(ctx, trader, "Risk questions")

	for i := 0; i < 6; i++ {
		if _, err := chat.SendMessage(ctx, trader, thread.ID, fmt.Sprintf("message %d about risk", i)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	if len(mentor.seen) != 5 {
		t.Fatalf("mentor saw %d messages, want window+1", len(mentor.seen))
	}
	if mentor.seen[0].Role != domain.RoleSystem || !strings.Contains(mentor.seen[0].Content, "message 0") {
		t.Fatalf("expected summary first, got %+v", mentor.seen[0])
	}
	if last := mentor.seen[4]; last.Content != "message 5 about risk" {
		t.Fatalf("newest message not last: %+v", last)
	}

	msgs, _ := chat.Messages(ctx, trader, thread.ID)
	for _, m := range msgs {
		if m.Role == domain.RoleSystem {
			t.Fatalf("summary persisted")
		}
	}
	if len(msgs) != 12 {
		t.Fatalf("expected 12 stored messages, got %d", len(msgs))
	}
}

func TestSendMessageMentorFailureKeepsUserTurn(t *testing.T) {
	mentor := &scriptedMentor{err: errors.New("upstream 502")}
	chat, _ := newChat(mentor, 10)
	ctx := context.Background()
	thread, _ := chat.CreateThread(ctx, trader, "")

	ex, err := chat.SendMessage(ctx, trader, thread.ID, "hello")
	if !errors.Is(err, domain.ErrMentorUnavailable) {
		t.Fatalf("expected ErrMentorUnavailable, got %v", err)
	}
	if ex.UserMessage.ID == "" {
		t.Fatalf("user message should be returned")
	}
	msgs, _ := chat.Messages(ctx, trader, thread.ID)
	if len(msgs) != 1 || msgs[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", msgs)
	}
}

func TestChatThreadAccess(t *testing.T) {
	chat, _ := newChat(app.OfflineMentor{}, 10)
	ctx := context.Background()
	thread, _ := chat.CreateThread(ctx, trader, "mine")
	other := app.Identity{UserID: "u2", Name: "Bob"}

	if _, err := chat.Messages(ctx, other, thread.ID); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
	if _, err := chat.SendMessage(ctx, other, thread.ID, "hi"); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
	if _, err := chat.SendMessage(ctx, trader, thread.ID, "   "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if threads, _ := chat.ListThreads(ctx, other); len(threads) != 0 {
		t.Fatalf("foreign threads listed: %+v", threads)
	}
}

func TestOfflineMentorAnswersByTopic(t *testing.T) {
	reply, err := app.OfflineMentor{}.Reply(context.Background(), "", []domain.ChatMessage{{Role: domain.RoleUser, Content: "I keep revenge trading after a loss"}})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !strings.Contains(reply, "emotion") {
		t.Fatalf("expected psychology playbook, got %q", reply)
	}
	fallback, _ := app.OfflineMentor{}.Reply(context.Background(), "", nil)
	if fallback == "" {
		t.Fatalf("expected default reply")
	}
}

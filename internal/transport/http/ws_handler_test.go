package http

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mpt-command-center/internal/domain"
)

func TestWebSocketLeaderboardStream(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + env.server.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current (empty) board first.
	typ, initial := readBoard(t, conn)
	if typ != "leaderboard" {
		t.Fatalf("expected leaderboard, got %s", typ)
	}
	if initial.Period != domain.PeriodFor(testNow) || len(initial.Entries) != 0 {
		t.Fatalf("unexpected initial board %+v", initial)
	}

	_, err = env.services.Leaderboard.RecordEvent(context.Background(), domain.ScoreEvent{
		ID:         "chat:m1",
		UserID:     "u1",
		UserName:   "Alice",
		Kind:       domain.EventChat,
		OccurredAt: testNow,
	})
	if err != nil {
		t.Fatalf("record event: %v", err)
	}

	typ, update := readBoard(t, conn)
	if typ != "leaderboard" {
		t.Fatalf("expected leaderboard update, got %s", typ)
	}
	if len(update.Entries) != 1 || update.Entries[0].UserName != "Alice" || update.Entries[0].ChatActivityScore != 1 {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestWebSocketPingAndUnknownMessages(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + env.server.URL[len("http"):] + "/ws/leaderboard?period=2026-W40"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readBoard(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if typ, _ := readBoard(t, conn); typ != "pong" {
		t.Fatalf("expected pong, got %s", typ)
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer"}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	if typ, _ := readBoard(t, conn); typ != "error" {
		t.Fatalf("expected error, got %s", typ)
	}
}

func TestWebSocketRejectsBadPeriod(t *testing.T) {
	env := newTestEnv(t)

	u := "ws" + env.server.URL[len("http"):] + "/ws/leaderboard?period=last-week"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400 response, got %+v", resp)
	}
}

func readBoard(t *testing.T, conn *websocket.Conn) (string, domain.Leaderboard) {
	t.Helper()
	var msg struct {
		Type    string             `json:"type"`
		Payload domain.Leaderboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// WSHandler streams a period's leaderboard to websocket clients.
type WSHandler struct {
	board    *app.LeaderboardService
	log      *logger.Logger
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewWSHandler(board *app.LeaderboardService, log *logger.Logger, now func() time.Time) *WSHandler {
	return &WSHandler{
		board: board,
		log:   log,
		now:   now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes the board for ?period= (default:
// current week): first a snapshot, then every refresh. Clients may send
// {"type":"ping"} and receive a pong.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ParsePeriod(r.URL.Query().Get("period"), h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.board.Subscribe(r.Context(), period)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: map[string]string{"period": string(period)}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

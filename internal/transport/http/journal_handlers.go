package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
)

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.journal.List(r.Context(), h.caller(r).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, trades)
}

func (h *Handler) createTrade(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTrade(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	trade, err := h.journal.Create(r.Context(), h.caller(r), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, trade)
}

func (h *Handler) updateTrade(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTrade(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	trade, err := h.journal.Update(r.Context(), h.caller(r), mux.Vars(r)["id"], in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, trade)
}

func (h *Handler) deleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.Delete(r.Context(), h.caller(r), mux.Vars(r)["id"]); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, map[string]string{"deleted": mux.Vars(r)["id"]})
}

func (h *Handler) journalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.journal.Stats(r.Context(), h.caller(r).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}

func decodeTrade(r *http.Request) (app.TradeInput, error) {
	var req tradeRequest
	if err := decode(r, &req); err != nil {
		return app.TradeInput{}, err
	}
	var tradedAt time.Time
	if req.TradedAt != nil {
		tradedAt = *req.TradedAt
	}
	return app.TradeInput{
		Pair:       req.Pair,
		Direction:  domain.Direction(req.Direction),
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		LotSize:    req.LotSize,
		PnL:        req.PnL,
		Emotion:    req.Emotion,
		Notes:      req.Notes,
		TradedAt:   tradedAt,
	}, nil
}

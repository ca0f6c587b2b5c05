package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mpt-command-center/internal/domain"
)

func (h *Handler) period(r *http.Request) (domain.Period, error) {
	return domain.ParsePeriod(r.URL.Query().Get("period"), h.now())
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.respondError(w, r, badRequest("limit must be a non-negative integer"))
			return
		}
	}
	lb, err := h.board.Leaderboard(r.Context(), period, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, lb)
}

func (h *Handler) podium(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	lb, err := h.board.Podium(r.Context(), period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, lb)
}

func (h *Handler) userRank(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rank, err := h.board.UserRank(r.Context(), period, mux.Vars(r)["userId"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, rank)
}

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mpt-command-center/internal/domain"
)

func (h *Handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	respondOK(w, profiles)
}

func (h *Handler) adminSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.users.SetRole(r.Context(), mux.Vars(r)["id"], domain.UserRole(req.Role))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user.Profile())
}

func (h *Handler) adminListInvitations(w http.ResponseWriter, r *http.Request) {
	codes, err := h.invitations.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, codes)
}

func (h *Handler) adminCreateInvitations(w http.ResponseWriter, r *http.Request) {
	var req invitationRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	var expiresIn time.Duration
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d < 0 {
			h.respondError(w, r, badRequest("expiresIn must be a duration such as 72h"))
			return
		}
		expiresIn = d
	}
	codes, err := h.invitations.Generate(r.Context(), h.caller(r).UserID, req.Count, req.MaxUses, expiresIn)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, codes)
}

func (h *Handler) adminRevokeInvitation(w http.ResponseWriter, r *http.Request) {
	code, err := h.invitations.Revoke(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, code)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, dash)
}

func (h *Handler) adminRecompute(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	saved, skipped, err := h.board.Recompute(r.Context(), period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.log.Info("leaderboard recomputed", "period", period, "saved", saved, "skipped", skipped, "by", h.caller(r).UserID)
	respondOK(w, recomputeResponse{Period: period, Saved: saved, Skipped: skipped})
}

func (h *Handler) adminUpsertModule(w http.ResponseWriter, r *http.Request) {
	var module domain.Module
	if err := decodeContent(r, &module); err != nil {
		h.respondError(w, r, err)
		return
	}
	module.ID = mux.Vars(r)["id"]
	saved, err := h.academy.UpsertModule(r.Context(), module)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, saved)
}

func (h *Handler) adminUpsertQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeContent(r, &quiz); err != nil {
		h.respondError(w, r, err)
		return
	}
	quiz.ID = mux.Vars(r)["id"]
	saved, err := h.academy.UpsertQuiz(r.Context(), quiz)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, saved)
}

// decodeContent reads academy content documents, which carry no validation tags.
func decodeContent(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return badRequest("malformed JSON body")
	}
	return nil
}

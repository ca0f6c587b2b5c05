package http

import (
	"net/http"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, token, err := h.users.Register(r.Context(), app.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, h.authResponse(user, token))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, h.authResponse(user, token))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), h.caller(r).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user.Profile())
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), h.caller(r).UserID, app.ProfileUpdate{
		Name:         req.Name,
		Bio:          req.Bio,
		TradingStyle: req.TradingStyle,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, user.Profile())
}

func (h *Handler) authResponse(user domain.User, token string) authResponse {
	return authResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
		User:      user.Profile(),
	}
}

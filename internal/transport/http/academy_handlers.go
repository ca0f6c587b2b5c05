package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) listModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.academy.Modules(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, modules)
}

func (h *Handler) getModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.academy.Module(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, module)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.academy.Quiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, quiz)
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	attempt, err := h.academy.Submit(r.Context(), h.caller(r), mux.Vars(r)["id"], req.Answers)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, attempt)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.academy.Attempts(r.Context(), h.caller(r).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, attempts)
}

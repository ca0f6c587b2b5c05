package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.chat.ListThreads(r.Context(), h.caller(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, threads)
}

func (h *Handler) createThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	// An empty body opens an untitled thread.
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	thread, err := h.chat.CreateThread(r.Context(), h.caller(r), req.Title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, thread)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.Messages(r.Context(), h.caller(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, msgs)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	exchange, err := h.chat.SendMessage(r.Context(), h.caller(r), mux.Vars(r)["id"], req.Content)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, exchange)
}

package http

import (
	"net/http"

	"mpt-command-center/internal/domain"
)

func (h *Handler) apkInfo(w http.ResponseWriter, r *http.Request) {
	if h.apk.URL == "" {
		h.respondError(w, r, domain.ErrNotFound)
		return
	}
	respondOK(w, h.apk)
}

func (h *Handler) apkDownload(w http.ResponseWriter, r *http.Request) {
	if h.apk.URL == "" {
		h.respondError(w, r, domain.ErrNotFound)
		return
	}
	http.Redirect(w, r, h.apk.URL, http.StatusFound)
}

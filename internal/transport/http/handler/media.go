package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smart-referral-api/internal/application/media"
)

type MediaHandler struct {
	media media.Service
}

func NewMediaHandler(svc media.Service) *MediaHandler {
	return &MediaHandler{media: svc}
}

// Download redirects an opaque media token to a short-lived presigned URL.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	target, ok := h.media.Resolve(r.Context(), chi.URLParam(r, "encoded_key"))
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

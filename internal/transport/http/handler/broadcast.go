package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/community-notify/internal/application/broadcast"
	"github.com/community-notify/internal/domain"
)

// webhookSecretHeader carries the shared secret the content backend
// sends with every change signal.
const webhookSecretHeader = "X-Webhook-Secret"

// BroadcastHandler receives content change signals and fans them out.
type BroadcastHandler struct {
	svc broadcast.Service
}

func NewBroadcastHandler(svc broadcast.Service) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

func (h *BroadcastHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusInternalServerError, "server not configured")
		return
	}

	// No schema validation before the service authenticates the caller:
	// field-level errors must not leak to whoever lacks the secret.
	var ev domain.ContentChangeEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.svc.Broadcast(r.Context(), r.Header.Get(webhookSecretHeader), ev)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			// Deliberately generic: the caller learns nothing about why.
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, domain.ErrBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrMisconfigured):
			writeError(w, http.StatusInternalServerError, "server not configured")
		default:
			writeError(w, http.StatusInternalServerError, "broadcast failed")
		}
		return
	}

	// Partial delivery failure is still HTTP 200; the summary carries
	// the per-endpoint outcome counts.
	writeJSON(w, http.StatusOK, summary)
}

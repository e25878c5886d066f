package handler

import "net/http"

// KeysHandler serves the VAPID application public key that clients need
// to create a push subscription addressed to this server.
type KeysHandler struct {
	publicKey string
}

func NewKeysHandler(publicKey string) *KeysHandler {
	return &KeysHandler{publicKey: publicKey}
}

func (h *KeysHandler) PublicKey(w http.ResponseWriter, _ *http.Request) {
	if h.publicKey == "" {
		writeError(w, http.StatusInternalServerError, "server not configured")
		return
	}
	writeJSON(w, http.StatusOK, KeyEnvelope{PublicKey: h.publicKey})
}

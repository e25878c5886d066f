package handler

import (
	"encoding/json"
	"net/http"

	"github.com/community-notify/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// KeyEnvelope wraps the server application key response.
type KeyEnvelope struct {
	PublicKey string `json:"public_key"`
}

// PaginatedSubscriptionsEnvelope wraps operator subscription listings.
type PaginatedSubscriptionsEnvelope struct {
	Data       []domain.Subscription `json:"data"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

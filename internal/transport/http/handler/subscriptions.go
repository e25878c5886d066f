package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/community-notify/internal/application/registry"
	"github.com/community-notify/internal/domain"
	"github.com/community-notify/internal/pkg/validate"
)

// SubscriptionHandler handles subscription registry endpoints.
type SubscriptionHandler struct {
	svc      registry.Service
	pageSize int32
}

func NewSubscriptionHandler(svc registry.Service, pageSize int32) *SubscriptionHandler {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &SubscriptionHandler{svc: svc, pageSize: pageSize}
}

func (h *SubscriptionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.svc.Register(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "could not store subscription")
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "subscription registered"})
}

func (h *SubscriptionHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req domain.UnregisterSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Unregister(r.Context(), req.Endpoint); err != nil {
		writeError(w, http.StatusInternalServerError, "could not remove subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List is an operator endpoint; the router mounts it behind JWT auth.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := h.pageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if int32(n) < limit {
			limit = int32(n)
		}
	}
	subs, next, err := h.svc.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	writeJSON(w, http.StatusOK, PaginatedSubscriptionsEnvelope{Data: subs, NextCursor: next})
}

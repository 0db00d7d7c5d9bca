package http

import (
	"context"
	"log/slog"
	"net/http"
)

type SubscribeHandler struct {
	svc    SubscriberService
	limits Limits
	log    *slog.Logger
}

func NewSubscribeHandler(svc SubscriberService, limits Limits, log *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{svc: svc, limits: limits, log: log.With("component", "subscribe_handler")}
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var req SubscribeRequest
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := h.svc.Subscribe(ctx, req.Email)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	if !created {
		respondMessage(w, http.StatusOK, "Email already subscribed")
		return
	}
	respondMessage(w, http.StatusCreated, "Subscribed successfully")
}

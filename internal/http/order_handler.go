package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/retisha256/ecommerce/internal/domain"
)

type OrderHandler struct {
	svc    OrderService
	limits Limits
	log    *slog.Logger
}

func NewOrderHandler(svc OrderService, limits Limits, log *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, limits: limits, log: log.With("component", "order_handler")}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var o domain.Order
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &o); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := h.svc.Create(ctx, &o)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusCreated, created, map[string]interface{}{
		"orderId": created.OrderID,
		"message": "Order placed",
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	o, err := h.svc.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, o, nil)
}

// List returns a customer's order history; the email query parameter is required.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	orders, err := h.svc.ListByEmail(ctx, email)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondData(w, http.StatusOK, orders, map[string]interface{}{"count": len(orders)})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var u domain.StatusUpdate
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &u); err != nil {
		writeDecodeError(w, err)
		return
	}

	o, err := h.svc.UpdateStatus(ctx, chi.URLParam(r, "id"), u)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, o, map[string]interface{}{"message": "Status updated"})
}

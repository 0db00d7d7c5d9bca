package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/retisha256/ecommerce/internal/service"
)

type PaymentHandler struct {
	svc    PaymentService
	limits Limits
	log    *slog.Logger
}

func NewPaymentHandler(svc PaymentService, limits Limits, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, limits: limits, log: log.With("component", "payment_handler")}
}

type VerifyPaymentRequest struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentReference"`
}

func (h *PaymentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var req service.GeneratePaymentRequest
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.svc.Generate(ctx, req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, res, map[string]interface{}{
		"paymentReference": res.Payment.PaymentReference,
	})
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.limits.Timeout)
	defer cancel()

	var req VerifyPaymentRequest
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	o, err := h.svc.Verify(ctx, req.OrderID, req.PaymentReference)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondData(w, http.StatusOK, o, map[string]interface{}{"verified": true})
}

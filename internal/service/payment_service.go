package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retisha256/ecommerce/internal/domain"
)

// PaymentConfirmer is the part of the order service payments depend on.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID, reference string) (*domain.Order, error)
}

type PaymentService struct {
	orders    PaymentConfirmer
	providers map[domain.PaymentMethod]domain.Provider
	log       *slog.Logger
	now       func() time.Time
}

func NewPaymentService(orders PaymentConfirmer, providers map[domain.PaymentMethod]domain.Provider, log *slog.Logger) *PaymentService {
	return &PaymentService{
		orders:    orders,
		providers: providers,
		log:       log.With("component", "payment_service"),
		now:       time.Now,
	}
}

type GeneratePaymentRequest struct {
	OrderID       string               `json:"orderId"`
	Amount        domain.Money         `json:"amount"`
	Phone         string               `json:"phone"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type GeneratedPayment struct {
	Payment      domain.PaymentRecord `json:"payment"`
	Instructions domain.Instructions  `json:"instructions"`
}

// Generate issues a payment reference and the steps the customer follows on
// their phone. Nothing is charged.
func (s *PaymentService) Generate(_ context.Context, req GeneratePaymentRequest) (*GeneratedPayment, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidPayment)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	provider, ok := s.providers[req.PaymentMethod]
	if !ok {
		return nil, fmt.Errorf("%w: payment method must be mtn or airtel", ErrInvalidPayment)
	}

	record := domain.PaymentRecord{
		OrderID:          req.OrderID,
		Amount:           req.Amount,
		Phone:            strings.TrimSpace(req.Phone),
		PaymentMethod:    req.PaymentMethod,
		Timestamp:        s.now().UTC(),
		PaymentReference: "PAY-" + uuid.NewString(),
	}
	return &GeneratedPayment{
		Payment:      record,
		Instructions: domain.NewInstructions(provider, record.OrderID, record.Amount),
	}, nil
}

func (s *PaymentService) Verify(ctx context.Context, orderID, reference string) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidPayment)
	}
	if reference == "" {
		reference = "PAY-" + uuid.NewString()
	}
	return s.orders.ConfirmPayment(ctx, orderID, reference)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
)

type OrderService struct {
	orders   repository.OrderRepository
	outbox   repository.OutboxRepository
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewOrderService(orders repository.OrderRepository, outbox repository.OutboxRepository, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		outbox:   outbox,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "order_service"),
		now:      time.Now,
	}
}

type customerRules struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	Phone     string `validate:"required"`
	Address   string `validate:"required"`
	City      string `validate:"required"`
}

func (s *OrderService) checkOrder(o *domain.Order) error {
	c := &o.Customer
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)

	err := s.validate.Struct(customerRules{
		FirstName: c.FirstName, LastName: c.LastName, Email: c.Email,
		Phone: c.Phone, Address: c.Address, City: c.City,
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: customer %s", ErrInvalidOrder, describeField(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	for i, item := range o.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidOrder, i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidOrder, i)
		}
	}
	if !o.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method must be mtn or airtel", ErrInvalidOrder)
	}
	if o.PaymentStatus != "" && !o.PaymentStatus.Valid() {
		return fmt.Errorf("%w: payment status %q", ErrInvalidStatus, o.PaymentStatus)
	}
	if o.OrderStatus != "" && !o.OrderStatus.Valid() {
		return fmt.Errorf("%w: order status %q", ErrInvalidStatus, o.OrderStatus)
	}
	return nil
}

func (s *OrderService) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if err := s.checkOrder(o); err != nil {
		return nil, err
	}

	if o.OrderID == "" {
		o.OrderID = domain.NewOrderID(s.now())
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPending
	}
	if o.OrderStatus == "" {
		o.OrderStatus = domain.OrderPending
	}
	if o.Total.IsZero() {
		o.Total = o.ItemsTotal()
	}

	if err := s.orders.Create(ctx, o); err != nil {
		if !errors.Is(err, repository.ErrDuplicateOrder) {
			s.log.ErrorContext(ctx, "repo create order error", "error", err, "order_id", o.OrderID)
		}
		return nil, err
	}

	s.publish(ctx, domain.EventOrderCreated, o)
	s.log.InfoContext(ctx, "order created", "order_id", o.OrderID, "total", o.Total.String())
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByOrderID(ctx, orderID)
}

func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return s.orders.ListByEmail(ctx, email)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, u domain.StatusUpdate) (*domain.Order, error) {
	if u.OrderStatus == "" && u.PaymentStatus == "" && u.Notes == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidStatus)
	}
	if u.OrderStatus != "" && !u.OrderStatus.Valid() {
		return nil, fmt.Errorf("%w: order status %q", ErrInvalidStatus, u.OrderStatus)
	}
	if u.PaymentStatus != "" && !u.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", ErrInvalidStatus, u.PaymentStatus)
	}

	current, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	change := repository.StatusChange{
		OrderStatus:   current.OrderStatus,
		PaymentStatus: current.PaymentStatus,
		Notes:         u.Notes,
	}
	if u.OrderStatus != "" {
		if !current.OrderStatus.CanTransitionTo(u.OrderStatus) {
			return nil, fmt.Errorf("%w: order %s -> %s", ErrIllegalTransition, current.OrderStatus, u.OrderStatus)
		}
		change.OrderStatus = u.OrderStatus
	}
	if u.PaymentStatus != "" {
		if !current.PaymentStatus.CanTransitionTo(u.PaymentStatus) {
			return nil, fmt.Errorf("%w: payment %s -> %s", ErrIllegalTransition, current.PaymentStatus, u.PaymentStatus)
		}
		change.PaymentStatus = u.PaymentStatus
	}

	updated, err := s.orders.UpdateStatus(ctx, current, change)
	if err != nil {
		return nil, err
	}

	if updated.OrderStatus != current.OrderStatus {
		s.publish(ctx, domain.EventOrderStatusChanged, updated)
	}
	if updated.PaymentStatus == domain.PaymentConfirmed && current.PaymentStatus != domain.PaymentConfirmed {
		s.publish(ctx, domain.EventOrderPaymentConfirmed, updated)
	}
	return updated, nil
}

// ConfirmPayment marks the payment confirmed without contacting any gateway.
// A pending order becomes confirmed; an order already further along keeps
// its status.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, reference string) (*domain.Order, error) {
	current, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	change := repository.StatusChange{
		OrderStatus:      current.OrderStatus,
		PaymentStatus:    domain.PaymentConfirmed,
		PaymentReference: reference,
	}
	if current.OrderStatus == domain.OrderPending {
		change.OrderStatus = domain.OrderConfirmed
	}

	updated, err := s.orders.UpdateStatus(ctx, current, change)
	if err != nil {
		return nil, err
	}

	if current.PaymentStatus != domain.PaymentConfirmed {
		s.publish(ctx, domain.EventOrderPaymentConfirmed, updated)
	}
	s.log.InfoContext(ctx, "payment confirmed", "order_id", updated.OrderID, "reference", reference)
	return updated, nil
}

// publish records an outbox event. Failures are logged; the order change
// itself has already been stored.
func (s *OrderService) publish(ctx context.Context, eventType domain.EventType, o *domain.Order) {
	payload, err := json.Marshal(o)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to marshal order event", "error", err, "order_id", o.OrderID)
		return
	}

	event := &domain.OutboxEvent{
		AggregateID: o.OrderID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.outbox.Add(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "failed to add outbox event", "error", err, "order_id", o.OrderID, "event_type", eventType)
	}
}

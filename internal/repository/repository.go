package repository

import (
	"context"
	"errors"

	"github.com/retisha256/ecommerce/internal/domain"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrder      = errors.New("order already exists")
	ErrStatusConflict      = errors.New("order status changed concurrently")
	ErrDuplicateSubscriber = errors.New("email already subscribed")
	ErrEventNotFound       = errors.New("outbox event not found")
)

type ProductRepository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	SoftDelete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, products []*domain.Product) error
}

// StatusChange is the full set of status fields written by UpdateStatus.
type StatusChange struct {
	OrderStatus      domain.OrderStatus
	PaymentStatus    domain.PaymentStatus
	PaymentReference string
	Notes            string
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Order, error)
	// UpdateStatus applies change only while the order still has the statuses
	// of current; otherwise it returns ErrStatusConflict.
	UpdateStatus(ctx context.Context, current *domain.Order, change StatusChange) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}

type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *domain.Subscriber) error
}

type OutboxRepository interface {
	Add(ctx context.Context, event *domain.OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}

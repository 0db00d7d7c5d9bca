package http

import (
	"context"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/service"
)

// Handlers depend on these narrow views of the service layer.

type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, u domain.StatusUpdate) (*domain.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}

type PaymentService interface {
	Generate(ctx context.Context, req service.GeneratePaymentRequest) (*service.GeneratedPayment, error)
	Verify(ctx context.Context, orderID, reference string) (*domain.Order, error)
}

type SubscriberService interface {
	Subscribe(ctx context.Context, email string) (bool, error)
}

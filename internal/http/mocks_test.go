package http

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/retisha256/ecommerce/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProductService struct {
	m          sync.Mutex
	products   map[string]*domain.Product
	lastFilter domain.ProductFilter
	created    *domain.Product
	err        error
}

func (s *mockProductService) List(_ context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	f = f.Normalize()
	page := &domain.ProductPage{Page: f.Page, Limit: f.Limit}
	for _, p := range s.products {
		page.Items = append(page.Items, p)
	}
	page.Total = int64(len(page.Items))
	return page, nil
}

func (s *mockProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (s *mockProductService) Create(_ context.Context, p *domain.Product) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	if p.Name == "" {
		return service.ErrInvalidProduct
	}
	p.ID = "new-id"
	s.created = p
	return nil
}

func (s *mockProductService) Update(_ context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	s.m.Lock()
	defer s.m.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	return p, nil
}

func (s *mockProductService) Delete(_ context.Context, id string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if _, ok := s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

type mockOrderService struct {
	m      sync.Mutex
	orders map[string]*domain.Order
	err    error
}

func (s *mockOrderService) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if o.OrderID == "" {
		o.OrderID = "ORD1"
	}
	if _, ok := s.orders[o.OrderID]; ok {
		return nil, repository.ErrDuplicateOrder
	}
	o.Total = o.ItemsTotal()
	o.OrderStatus = domain.OrderPending
	o.PaymentStatus = domain.PaymentPending
	s.orders[o.OrderID] = o
	return o, nil
}

func (s *mockOrderService) Get(_ context.Context, orderID string) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (s *mockOrderService) UpdateStatus(_ context.Context, orderID string, u domain.StatusUpdate) (*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if !u.OrderStatus.Valid() {
		return nil, service.ErrInvalidStatus
	}
	if !o.OrderStatus.CanTransitionTo(u.OrderStatus) {
		return nil, service.ErrIllegalTransition
	}
	o.OrderStatus = u.OrderStatus
	return o, nil
}

func (s *mockOrderService) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	s.m.Lock()
	defer s.m.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.Customer.Email == email {
			out = append(out, o)
		}
	}
	return out, nil
}

type mockPaymentService struct {
	verified []string
}

func (s *mockPaymentService) Generate(_ context.Context, req service.GeneratePaymentRequest) (*service.GeneratedPayment, error) {
	if !req.PaymentMethod.Valid() {
		return nil, service.ErrInvalidPayment
	}
	providers := domain.Providers("256754030391", "256705030391")
	return &service.GeneratedPayment{
		Payment: domain.PaymentRecord{
			OrderID:          req.OrderID,
			Amount:           req.Amount,
			PaymentMethod:    req.PaymentMethod,
			PaymentReference: "PAY-test",
		},
		Instructions: domain.NewInstructions(providers[req.PaymentMethod], req.OrderID, req.Amount),
	}, nil
}

func (s *mockPaymentService) Verify(_ context.Context, orderID, reference string) (*domain.Order, error) {
	if orderID == "missing" {
		return nil, repository.ErrOrderNotFound
	}
	s.verified = append(s.verified, orderID)
	return &domain.Order{
		OrderID:          orderID,
		PaymentStatus:    domain.PaymentConfirmed,
		OrderStatus:      domain.OrderConfirmed,
		PaymentReference: reference,
	}, nil
}

type mockSubscriberService struct {
	seen map[string]bool
}

func (s *mockSubscriberService) Subscribe(_ context.Context, email string) (bool, error) {
	if email == "" {
		return false, service.ErrInvalidEmail
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[email] {
		return false, nil
	}
	s.seen[email] = true
	return true, nil
}

type memoryStorage struct {
	m       sync.Mutex
	saved   []string
	deleted []string
}

func (s *memoryStorage) Save(_ context.Context, ext string, r io.Reader) (string, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "/uploads/image-test" + ext
	s.saved = append(s.saved, url)
	return url, nil
}

func (s *memoryStorage) Delete(_ context.Context, url string) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/retisha256/ecommerce/internal/cache"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProductRepository struct {
	m         sync.RWMutex
	products  map[string]*domain.Product
	err       error
	getCalls  int
	listCalls int
	nextID    int
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	r := &mockProductRepository{products: map[string]*domain.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (m *mockProductRepository) List(_ context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if p.IsActive && (f.Query == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query))) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) Get(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	p.ID = fmt.Sprintf("id-%d", m.nextID)
	p.IsActive = true
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return nil, repository.ErrProductNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	return p, nil
}

func (m *mockProductRepository) SoftDelete(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return repository.ErrProductNotFound
	}
	p.IsActive = false
	return nil
}

func (m *mockProductRepository) ReplaceAll(_ context.Context, products []*domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.products = map[string]*domain.Product{}
	for i, p := range products {
		p.ID = fmt.Sprintf("seed-%d", i)
		p.IsActive = true
		m.products[p.ID] = p
	}
	return nil
}

// gatedProductRepository holds the first Get after it has read the product,
// until release is closed.
type gatedProductRepository struct {
	*mockProductRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedProductRepository(products ...*domain.Product) *gatedProductRepository {
	return &gatedProductRepository{
		mockProductRepository: newMockProductRepository(products...),
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
}

func (g *gatedProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := g.mockProductRepository.Get(ctx, id)
	if err == nil {
		cp := *p
		p = &cp
	}
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return p, err
}

func (m *mockProductRepository) calls() (int, int) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.getCalls, m.listCalls
}

type mockCache struct {
	m           sync.RWMutex
	products    map[string]*domain.Product
	lists       map[string]*domain.ProductPage
	err         error
	invalidated int
}

func newMockCache() *mockCache {
	return &mockCache{products: map[string]*domain.Product{}, lists: map[string]*domain.ProductPage{}}
}

func listCacheKey(f domain.ProductFilter) string {
	return fmt.Sprintf("%s|%s|%d|%d", f.Query, f.Category, f.Limit, f.Page)
}

func (m *mockCache) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return p, nil
}

func (m *mockCache) SetProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.ID] = p
	return m.err
}

func (m *mockCache) GetList(_ context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	page, ok := m.lists[listCacheKey(f)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return page, nil
}

func (m *mockCache) SetList(_ context.Context, f domain.ProductFilter, page *domain.ProductPage) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.lists[listCacheKey(f)] = page
	return m.err
}

func (m *mockCache) Invalidate(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.invalidated++
	m.products = map[string]*domain.Product{}
	m.lists = map[string]*domain.ProductPage{}
	return m.err
}

func (m *mockCache) hasProduct(id string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.products[id]
	return ok
}

func (m *mockCache) invalidations() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.invalidated
}

type mockOrderRepository struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	createErr error
	updateErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}}
}

func (m *mockOrderRepository) Create(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.orders[o.OrderID]; ok {
		return repository.ErrDuplicateOrder
	}
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepository) GetByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, current *domain.Order, change repository.StatusChange) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	o, ok := m.orders[current.OrderID]
	if !ok || o.OrderStatus != current.OrderStatus || o.PaymentStatus != current.PaymentStatus {
		return nil, repository.ErrStatusConflict
	}
	o.OrderStatus = change.OrderStatus
	o.PaymentStatus = change.PaymentStatus
	if change.PaymentReference != "" {
		o.PaymentReference = change.PaymentReference
	}
	if change.Notes != "" {
		o.Notes = change.Notes
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if strings.EqualFold(o.Customer.Email, email) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockOutbox struct {
	m      sync.RWMutex
	events []*domain.OutboxEvent
	err    error
}

func (m *mockOutbox) Add(_ context.Context, e *domain.OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockOutbox) GetUnprocessedEvents(context.Context, int) ([]*domain.OutboxEvent, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.events, nil
}

func (m *mockOutbox) MarkEventAsProcessed(context.Context, string) error {
	return nil
}

func (m *mockOutbox) types() []domain.EventType {
	m.m.RLock()
	defer m.m.RUnlock()
	out := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.EventType
	}
	return out
}

type mockSubscribers struct {
	m      sync.Mutex
	emails map[string]bool
	err    error
}

func (m *mockSubscribers) Create(_ context.Context, s *domain.Subscriber) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.emails == nil {
		m.emails = map[string]bool{}
	}
	if m.emails[s.Email] {
		return repository.ErrDuplicateSubscriber
	}
	m.emails[s.Email] = true
	return nil
}

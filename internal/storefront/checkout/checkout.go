// Package checkout turns the cart into an order: it validates the customer
// form, shows mobile-money payment instructions, and confirms the order with
// the backend or, failing that, queues it locally.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/storefront/api"
	"github.com/retisha256/ecommerce/internal/storefront/cart"
	"github.com/retisha256/ecommerce/internal/storefront/notify"
	"github.com/retisha256/ecommerce/internal/storefront/storage"
)

var (
	ErrEmptyCart      = errors.New("your cart is empty")
	ErrNoPendingOrder = errors.New("no pending order to confirm")
	ErrConfirmFailed  = errors.New("error confirming payment")
)

const (
	successMessage = "Order Placed Successfully!"
	failureMessage = "Error confirming payment. Please try again or contact support."
)

// Backend is the part of the API client used to place orders.
type Backend interface {
	CreateOrder(ctx context.Context, o *domain.Order) (*domain.Order, error)
	VerifyPayment(ctx context.Context, orderID, reference string) (*domain.Order, error)
}

// Pending is what Submit hands back: the payment record and what the
// customer has to do on their phone.
type Pending struct {
	Order        domain.Order
	Payment      domain.PaymentRecord
	Instructions domain.Instructions
}

type Success struct {
	Order domain.Order
	// Queued is set when the backend was unreachable and the order was kept
	// in the local order list instead.
	Queued bool
}

type Checkout struct {
	store     storage.Store
	cart      *cart.Manager
	backend   Backend
	providers map[domain.PaymentMethod]domain.Provider
	notifier  notify.Notifier
	validator *validator.Validate
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*Checkout)

func WithNotifier(n notify.Notifier) Option {
	return func(c *Checkout) { c.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Checkout) { c.log = log }
}

// WithMerchants overrides the default mobile-money merchant numbers.
func WithMerchants(mtn, airtel string) Option {
	return func(c *Checkout) { c.providers = domain.Providers(mtn, airtel) }
}

func New(store storage.Store, m *cart.Manager, backend Backend, opts ...Option) *Checkout {
	c := &Checkout{
		store:     store,
		cart:      m,
		backend:   backend,
		providers: domain.Providers(domain.DefaultMTNMerchant, domain.DefaultAirtelMerchant),
		notifier:  notify.Nop{},
		validator: newValidator(),
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "checkout")
	return c
}

// Submit validates the form and stores the pending order. Nothing is sent to
// the backend until Confirm.
func (c *Checkout) Submit(ctx context.Context, form CustomerForm) (*Pending, error) {
	if err := c.validate(form); err != nil {
		return nil, err
	}

	// Another tab may have changed the cart since this manager last read it.
	c.cart.Refresh()
	snap := c.cart.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := c.now()
	method := domain.PaymentMethod(form.Payment)
	orderID := domain.NewOrderID(now)

	items := make([]domain.OrderItem, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = it.OrderItem()
	}
	order := domain.Order{
		OrderID:       orderID,
		Customer:      form.Customer(),
		Items:         items,
		Total:         snap.Total,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentPending,
		OrderStatus:   domain.OrderPending,
		CreatedAt:     now.UTC(),
	}
	payment := domain.PaymentRecord{
		OrderID:       orderID,
		Amount:        snap.Total,
		Phone:         order.Customer.Phone,
		PaymentMethod: method,
		Timestamp:     now.UTC(),
	}

	if err := storage.SaveJSON(c.store, storage.KeyPendingOrder, order); err != nil {
		return nil, err
	}
	if err := storage.SaveJSON(c.store, storage.KeyPaymentData, payment); err != nil {
		return nil, err
	}

	c.log.InfoContext(ctx, "payment instructions generated", "order_id", orderID, "method", method, "amount", snap.Total.String())
	return &Pending{
		Order:        order,
		Payment:      payment,
		Instructions: domain.NewInstructions(c.providers[method], orderID, snap.Total),
	}, nil
}

// Confirm is the "I Have Made Payment" step.
func (c *Checkout) Confirm(ctx context.Context, orderID string) (*Success, error) {
	var (
		order   domain.Order
		payment domain.PaymentRecord
	)
	okOrder, err := storage.LoadJSON(c.store, storage.KeyPendingOrder, &order)
	if err != nil {
		return nil, err
	}
	okPayment, err := storage.LoadJSON(c.store, storage.KeyPaymentData, &payment)
	if err != nil {
		return nil, err
	}
	if !okOrder || !okPayment {
		return nil, ErrNoPendingOrder
	}

	if orderID == "" {
		orderID = payment.OrderID
	}
	order.OrderID = orderID
	order.PaymentStatus = domain.PaymentPending
	order.PaymentMethod = payment.PaymentMethod

	res := &Success{}
	confirmed, err := c.placeOrder(ctx, &order, payment.PaymentReference)
	if err == nil {
		res.Order = *confirmed
	} else {
		c.log.WarnContext(ctx, "backend order failed, queueing locally", "error", err, "order_id", orderID)
		if err := c.queueLocally(order); err != nil {
			c.log.ErrorContext(ctx, "local order fallback failed", "error", err, "order_id", orderID)
			c.notifier.Notify(notify.Error, failureMessage)
			return nil, fmt.Errorf("%w: %v", ErrConfirmFailed, err)
		}
		res.Order = order
		res.Queued = true
	}

	c.cart.Clear()
	for _, key := range []string{storage.KeyCart, storage.KeyPendingOrder, storage.KeyPaymentData} {
		if err := c.store.Remove(key); err != nil {
			c.log.WarnContext(ctx, "failed to clear checkout state", "error", err, "key", key)
		}
	}

	c.notifier.Notify(notify.Success, successMessage)
	return res, nil
}

func (c *Checkout) placeOrder(ctx context.Context, order *domain.Order, reference string) (*domain.Order, error) {
	if c.backend == nil {
		return nil, errors.New("no backend configured")
	}
	if _, err := c.backend.CreateOrder(ctx, order); err != nil && !isDuplicate(err) {
		return nil, fmt.Errorf("create order: %w", err)
	}
	verified, err := c.backend.VerifyPayment(ctx, order.OrderID, reference)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if verified == nil {
		return nil, errors.New("verify payment: empty response")
	}
	return verified, nil
}

// isDuplicate treats a 409 on create as an earlier attempt that got through.
func isDuplicate(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict && strings.Contains(apiErr.Message, "exists")
}

func (c *Checkout) queueLocally(order domain.Order) error {
	var orders []domain.Order
	if _, err := storage.LoadJSON(c.store, storage.KeyOrders, &orders); err != nil {
		return err
	}
	orders = append(orders, order)
	return storage.SaveJSON(c.store, storage.KeyOrders, orders)
}

// QueuedOrders lists orders kept locally because the backend was unavailable.
func (c *Checkout) QueuedOrders() ([]domain.Order, error) {
	var orders []domain.Order
	_, err := storage.LoadJSON(c.store, storage.KeyOrders, &orders)
	return orders, err
}

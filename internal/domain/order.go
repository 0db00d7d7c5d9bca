package domain

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	PaymentMTN    PaymentMethod = "mtn"
	PaymentAirtel PaymentMethod = "airtel"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMTN || m == PaymentAirtel
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentConfirmed, PaymentFailed},
	PaymentConfirmed: {PaymentRefunded},
	PaymentFailed:    {PaymentPending},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok || s == OrderDelivered || s == OrderCancelled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether an order may move from s to next.
// Re-applying the current status is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Customer struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email" bson:"email"`
	Phone     string `json:"phone" bson:"phone"`
	Address   string `json:"address" bson:"address"`
	City      string `json:"city" bson:"city"`
}

// OrderItem is the snapshot of a cart line taken at checkout.
type OrderItem struct {
	ProductID string `json:"productId" bson:"productId"`
	Name      string `json:"name" bson:"name"`
	Category  string `json:"category" bson:"category"`
	Price     Money  `json:"price" bson:"price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	Image     string `json:"image" bson:"image"`
}

func (i OrderItem) Subtotal() Money {
	return i.Price.Mul(i.Quantity)
}

type Order struct {
	ID               string        `json:"_id,omitempty" bson:"-"`
	OrderID          string        `json:"orderId" bson:"orderId"`
	Customer         Customer      `json:"customer" bson:"customer"`
	Items            []OrderItem   `json:"items" bson:"items"`
	Total            Money         `json:"total" bson:"total"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	OrderStatus      OrderStatus   `json:"orderStatus" bson:"orderStatus"`
	PaymentReference string        `json:"paymentReference,omitempty" bson:"paymentReference,omitempty"`
	Notes            string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// ItemsTotal sums price × quantity over the order lines.
func (o Order) ItemsTotal() Money {
	var total Money
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// NewOrderID returns the customer-facing order reference for t.
func NewOrderID(t time.Time) string {
	return fmt.Sprintf("ORD%d", t.UnixMilli())
}

// StatusUpdate is a request to move an order along; empty fields are left as is.
type StatusUpdate struct {
	OrderStatus   OrderStatus   `json:"orderStatus,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/mailer"
)

type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Notifications turns storefront events into e-mails.
type Notifications struct {
	mail     MailSender
	shopMail string
}

func NewNotifications(mail MailSender, shopMail string) *Notifications {
	return &Notifications{mail: mail, shopMail: shopMail}
}

// Register wires the notification handlers into c.
func (n *Notifications) Register(c *Consumer) {
	c.Handle(domain.EventOrderPaymentConfirmed, n.OrderPaymentConfirmed)
	c.Handle(domain.EventSubscriberCreated, n.SubscriberCreated)
}

func (n *Notifications) OrderPaymentConfirmed(ctx context.Context, payload []byte) error {
	var o domain.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if o.Customer.Email == "" {
		return fmt.Errorf("order %s has no customer email", o.OrderID)
	}

	msg, err := mailer.OrderConfirmationMessage(&o)
	if err != nil {
		return err
	}
	return n.mail.Send(ctx, msg)
}

func (n *Notifications) SubscriberCreated(ctx context.Context, payload []byte) error {
	var sub domain.Subscriber
	if err := json.Unmarshal(payload, &sub); err != nil {
		return fmt.Errorf("decode subscriber event: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	msg, err := mailer.NewSubscriberMessage(n.shopMail, sub.Email, sub.CreatedAt)
	if err != nil {
		return err
	}
	return n.mail.Send(ctx, msg)
}

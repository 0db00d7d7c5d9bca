package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
)

var subscriberTmpl = template.Must(template.New("subscriber").Parse(`<h2>New Newsletter Subscription</h2>
<p>A new user has subscribed to the newsletter.</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subscribed on:</strong> {{.At}}</p>
<p>You can now send newsletters to this email address.</p>
`))

var orderTmpl = template.Must(template.New("order").Parse(`<h2>Thank you for your order, {{.Customer.FirstName}}!</h2>
<p>We have received your payment for order <strong>{{.OrderID}}</strong>.</p>
<table>
{{- range .Items}}
<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.Subtotal.Format}}</td></tr>
{{- end}}
</table>
<p><strong>Total:</strong> {{.Total.Format}}</p>
<p>Your order will be processed within 24 hours after payment confirmation.</p>
<p>Novuna Electronics</p>
`))

// NewSubscriberMessage notifies the shop inbox about a newsletter signup.
func NewSubscriberMessage(shop, email string, at time.Time) (Message, error) {
	var buf bytes.Buffer
	err := subscriberTmpl.Execute(&buf, struct {
		Email string
		At    string
	}{email, at.UTC().Format(time.RFC3339)})
	if err != nil {
		return Message{}, fmt.Errorf("render subscriber mail: %w", err)
	}
	return Message{
		To:      []string{shop},
		Subject: "New Newsletter Subscriber",
		HTML:    buf.String(),
		Text:    fmt.Sprintf("New newsletter subscriber: %s", email),
	}, nil
}

// OrderConfirmationMessage is sent to the customer once payment is confirmed.
func OrderConfirmationMessage(o *domain.Order) (Message, error) {
	var buf bytes.Buffer
	if err := orderTmpl.Execute(&buf, o); err != nil {
		return Message{}, fmt.Errorf("render order mail: %w", err)
	}
	return Message{
		To:      []string{o.Customer.Email},
		Subject: fmt.Sprintf("Order %s confirmed - Novuna Electronics", o.OrderID),
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Payment for order %s (%s) has been confirmed.", o.OrderID, o.Total.Format()),
	}, nil
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService() (*PaymentService, *OrderService) {
	orders, _, _ := newTestOrderService()
	return NewPaymentService(orders, domain.Providers("256754030391", "256705030391"), testLogger()), orders
}

func TestGeneratePayment(t *testing.T) {
	svc, _ := newTestPaymentService()

	res, err := svc.Generate(context.Background(), GeneratePaymentRequest{
		OrderID:       "ORD1",
		Amount:        domain.NewMoney(25000),
		Phone:         "0772123456",
		PaymentMethod: domain.PaymentAirtel,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Payment.PaymentReference, "PAY-"))
	assert.Equal(t, "ORD1", res.Payment.OrderID)
	assert.False(t, res.Payment.Timestamp.IsZero())
	assert.Equal(t, "Dial *185*9*1# on your phone", res.Instructions.Steps[0])
	assert.Contains(t, res.Instructions.WhatsAppLink, "https://wa.me/256705030391?text=")
}

func TestGeneratePayment_Invalid(t *testing.T) {
	svc, _ := newTestPaymentService()

	tests := []GeneratePaymentRequest{
		{Amount: domain.NewMoney(1), PaymentMethod: domain.PaymentMTN},
		{OrderID: "ORD1", PaymentMethod: domain.PaymentMTN},
		{OrderID: "ORD1", Amount: domain.NewMoney(1), PaymentMethod: "visa"},
	}
	for _, req := range tests {
		_, err := svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	}
}

func TestVerifyPayment(t *testing.T) {
	svc, orders := newTestPaymentService()
	o, err := orders.Create(context.Background(), newTestOrder())
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), o.OrderID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentConfirmed, verified.PaymentStatus)
	assert.True(t, strings.HasPrefix(verified.PaymentReference, "PAY-"))

	_, err = svc.Verify(context.Background(), "ORD-unknown", "PAY-1")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	_, err = svc.Verify(context.Background(), " ", "PAY-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

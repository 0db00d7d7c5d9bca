package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *mockSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailer_Send(t *testing.T) {
	sender := &mockSender{}
	m := New(sender, DefaultBreakerSettings(), testLogger())

	err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi", Text: "hello"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hi", sender.sent[0].Subject)
}

func TestMailer_NoRecipients(t *testing.T) {
	sender := &mockSender{}
	m := New(sender, DefaultBreakerSettings(), testLogger())

	err := m.Send(context.Background(), Message{Subject: "hi"})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, sender.sent)
}

func TestMailer_BreakerOpensAfterFailures(t *testing.T) {
	boom := errors.New("connection refused")
	sender := &mockSender{err: boom}
	m := New(sender, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, testLogger())
	msg := Message{To: []string{"a@example.com"}, Subject: "x"}

	assert.ErrorIs(t, m.Send(context.Background(), msg), boom)
	assert.ErrorIs(t, m.Send(context.Background(), msg), boom)
	assert.Equal(t, gobreaker.StateOpen, m.State())

	sender.err = nil
	err := m.Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, sender.sent)
}

func TestMailer_BreakerRecovers(t *testing.T) {
	sender := &mockSender{err: errors.New("down")}
	m := New(sender, BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond}, testLogger())
	msg := Message{To: []string{"a@example.com"}, Subject: "x"}

	require.Error(t, m.Send(context.Background(), msg))
	require.Equal(t, gobreaker.StateOpen, m.State())

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	require.Eventually(t, func() bool {
		return m.Send(context.Background(), msg) == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, gobreaker.StateClosed, m.State())
}

func TestNewSubscriberMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := NewSubscriberMessage("shop@example.com", "fan@example.com", at)
	require.NoError(t, err)

	assert.Equal(t, []string{"shop@example.com"}, msg.To)
	assert.Equal(t, "New Newsletter Subscriber", msg.Subject)
	assert.Contains(t, msg.HTML, "fan@example.com")
	assert.Contains(t, msg.HTML, "2026-01-02T03:04:05Z")
}

func TestOrderConfirmationMessage(t *testing.T) {
	o := &domain.Order{
		OrderID:  "ORD1700000000000",
		Customer: domain.Customer{FirstName: "Jane", Email: "jane@example.com"},
		Items: []domain.OrderItem{
			{Name: "Power Bank <XL>", Price: domain.NewMoney(10000), Quantity: 2},
		},
		Total: domain.NewMoney(20000),
	}

	msg, err := OrderConfirmationMessage(o)
	require.NoError(t, err)

	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "ORD1700000000000")
	assert.Contains(t, msg.HTML, "UGX.20,000")
	assert.Contains(t, msg.HTML, "Power Bank &lt;XL&gt;")
	assert.Contains(t, msg.Text, "UGX.20,000")
}

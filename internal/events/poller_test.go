package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func newTestPoller(repo OutboxStore, w MessageWriter) *OutboxPoller {
	return &OutboxPoller{eventTick: 10 * time.Millisecond, repo: repo, writer: w, log: testLogger()}
}

func TestProcessUnpublishedEvents(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{
		{ID: "e1", AggregateID: "ORD1", EventType: domain.EventOrderCreated, Payload: json.RawMessage(`{"orderId":"ORD1"}`)},
		{ID: "e2", AggregateID: "fan@example.com", EventType: domain.EventSubscriberCreated, Payload: json.RawMessage(`{"email":"fan@example.com"}`)},
	}}
	w := &mockWriter{}

	n := newTestPoller(repo, w).processUnpublishedEvents(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, repo.processed)
	require.Len(t, w.written, 2)
	assert.Equal(t, "ORD1", string(w.written[0].Key))
	assert.Equal(t, "order.created", headerValue(w.written[0].Headers, HeaderEventType))
	assert.JSONEq(t, `{"email":"fan@example.com"}`, string(w.written[1].Value))
}

func TestProcessUnpublishedEvents_PublishFailureLeavesEventPending(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{
		{ID: "e1", AggregateID: "ORD1", EventType: domain.EventOrderCreated},
		{ID: "e2", AggregateID: "ORD2", EventType: domain.EventOrderCreated},
	}}
	w := &mockWriter{failKey: "ORD1"}
	p := newTestPoller(repo, w)

	assert.Equal(t, 1, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []string{"e2"}, repo.processed)

	w.failKey = ""
	assert.Equal(t, 1, p.processUnpublishedEvents(context.Background()))
	assert.Equal(t, []string{"e2", "e1"}, repo.processed)
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &mockOutbox{fetchErr: errors.New("mongo down")}
	w := &mockWriter{}

	assert.Equal(t, 0, newTestPoller(repo, w).processUnpublishedEvents(context.Background()))
	assert.Empty(t, w.written)
}

func TestProcessUnpublishedEvents_MarkError(t *testing.T) {
	repo := &mockOutbox{
		events:  []*domain.OutboxEvent{{ID: "e1", AggregateID: "ORD1", EventType: domain.EventOrderCreated}},
		markErr: errors.New("write conflict"),
	}
	w := &mockWriter{}

	assert.Equal(t, 0, newTestPoller(repo, w).processUnpublishedEvents(context.Background()))
	assert.Len(t, w.written, 1)
}

func TestOutboxPoller_RunStopsOnCancel(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{{ID: "e1", AggregateID: "ORD1", EventType: domain.EventOrderCreated}}}
	w := &mockWriter{}
	p := newTestPoller(repo, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.processed) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func setupKafka(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func TestOutboxPoller_PublishesToKafkaAndConsumerDispatches(t *testing.T) {
	brokerAddr := setupKafka(t)
	const topic = "storefront-events-test"

	order := domain.Order{
		OrderID:  "ORD1700000000000",
		Customer: domain.Customer{FirstName: "Jane", Email: "jane@example.com"},
		Total:    domain.NewMoney(25000),
	}
	payload, err := json.Marshal(order)
	require.NoError(t, err)

	repo := &mockOutbox{events: []*domain.OutboxEvent{{
		ID:          "e1",
		AggregateID: order.OrderID,
		EventType:   domain.EventOrderPaymentConfirmed,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}}}

	writer := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokerAddr),
		Topic:                  topic,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	poller := &OutboxPoller{eventTick: 500 * time.Millisecond, repo: repo, writer: writer, log: testLogger()}
	defer poller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	go poller.Run(ctx)

	mail := &mockMail{}
	consumer := NewConsumer(topic, "notifier-test", testLogger(), brokerAddr)
	defer consumer.Close()
	NewNotifications(mail, "shop@example.com").Register(consumer)
	go consumer.Run(ctx)

	require.Eventually(t, func() bool {
		mail.mu.Lock()
		defer mail.mu.Unlock()
		return len(mail.sent) == 1
	}, 50*time.Second, 200*time.Millisecond)

	assert.Equal(t, []string{"jane@example.com"}, mail.sent[0].To)
	repo.mu.Lock()
	assert.Equal(t, []string{"e1"}, repo.processed)
	repo.mu.Unlock()
}

package domain

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventOrderCreated          EventType = "order.created"
	EventOrderPaymentConfirmed EventType = "order.payment_confirmed"
	EventOrderStatusChanged    EventType = "order.status_changed"
	EventSubscriberCreated     EventType = "subscriber.created"
)

// OutboxEvent is written next to every state change and later published to
// the event bus by the outbox poller.
type OutboxEvent struct {
	ID          string          `json:"id" bson:"-"`
	AggregateID string          `json:"aggregateId" bson:"aggregateId"`
	EventType   EventType       `json:"eventType" bson:"eventType"`
	Payload     json.RawMessage `json:"payload" bson:"payload"`
	Processed   bool            `json:"processed" bson:"processed"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
}

type Subscriber struct {
	Email     string    `json:"email" bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Handler processes the payload of one event type.
type Handler func(ctx context.Context, payload []byte) error

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

const (
	minReadBackoff = 100 * time.Millisecond
	maxReadBackoff = 10 * time.Second
)

var errRead = errors.New("read message")

type Consumer struct {
	reader   MessageReader
	handlers map[domain.EventType]Handler
	log      *slog.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(topic, groupID string, log *slog.Logger, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(reader, log)
}

func newConsumer(reader MessageReader, log *slog.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		handlers:   make(map[domain.EventType]Handler),
		log:        log.With("component", "event_consumer"),
		minBackoff: minReadBackoff,
		maxBackoff: maxReadBackoff,
	}
}

// Handle registers h for eventType, replacing any earlier handler.
func (c *Consumer) Handle(eventType domain.EventType, h Handler) {
	c.handlers[eventType] = h
}

// Run consumes until ctx is done or the reader is closed. Consecutive read
// failures are retried with exponential backoff.
func (c *Consumer) Run(ctx context.Context) {
	backoff := c.minBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return
		case errors.Is(err, errRead):
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, c.maxBackoff)
		default:
			backoff = c.minBackoff
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", "error", err)
	}
}

// processMessage reads and dispatches one message. Handler failures are
// logged and the message is committed anyway; mail is best effort.
func (c *Consumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return err
		}
		c.log.ErrorContext(ctx, "error reading message", "error", err)
		return fmt.Errorf("%w: %w", errRead, err)
	}

	eventType := domain.EventType(headerValue(m.Headers, HeaderEventType))
	h, ok := c.handlers[eventType]
	if !ok {
		c.log.DebugContext(ctx, "no handler for event", "event_type", eventType, "key", string(m.Key))
		return nil
	}

	if err := h(ctx, m.Value); err != nil {
		err = fmt.Errorf("handle %s for %s: %w", eventType, m.Key, err)
		c.log.ErrorContext(ctx, "event handler failed", "error", err, "offset", m.Offset)
		return err
	}
	c.log.InfoContext(ctx, "event handled", "event_type", eventType, "key", string(m.Key))
	return nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/retisha256/ecommerce/internal/domain"
	"github.com/retisha256/ecommerce/internal/mailer"
	"github.com/segmentio/kafka-go"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockOutbox struct {
	mu        sync.Mutex
	events    []*domain.OutboxEvent
	processed []string
	fetchErr  error
	markErr   error
}

func (m *mockOutbox) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Processed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutbox) MarkEventAsProcessed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, e := range m.events {
		if e.ID == id {
			e.Processed = true
		}
	}
	m.processed = append(m.processed, id)
	return nil
}

type mockWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	failKey string
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == w.failKey {
			return errors.New("broker not available")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func (w *mockWriter) Close() error { return nil }

// sliceReader hands out queued messages, then io.EOF like a closed kafka.Reader.
type sliceReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) Close() error { return nil }

// failingReader fails the first failures reads, then behaves like sliceReader.
type failingReader struct {
	sliceReader
	failures int
	calls    int
}

func (r *failingReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return kafka.Message{}, errors.New("broker not available")
	}
	return r.sliceReader.ReadMessage(ctx)
}

func (r *failingReader) readCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type mockMail struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *mockMail) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Package notify carries the short user-facing messages the storefront shows
// after an action ("Product added to cart!").
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Error   Level = "error"
)

type Notifier interface {
	Notify(level Level, message string)
}

type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(Level, string) {}

// Writer prints messages, one per line, prefixed for errors.
type Writer struct {
	mu sync.Mutex
	W  io.Writer
}

func (w *Writer) Notify(level Level, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if level == Error {
		fmt.Fprintf(w.W, "error: %s\n", message)
		return
	}
	fmt.Fprintln(w.W, message)
}

type Message struct {
	Level   Level
	Message string
}

// Recorder keeps every message it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Message: message})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

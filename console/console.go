// Package console carries user-visible console messages out of the
// execution pipeline.
//
// Pipeline failures and console.log/warn/error calls made by user code are
// delivered as Message values to a Sink. The Buffer sink backs the console
// panel; ZapSink mirrors messages into the application log.
package console

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a console message
type Kind string

// Message kinds
const (
	KindLog   Kind = "log"
	KindWarn  Kind = "warn"
	KindError Kind = "error"
)

// Message is one line of console output
type Message struct {
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives console messages
type Sink interface {
	OnMessage(msg Message)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(msg Message)

// OnMessage calls f(msg)
func (f SinkFunc) OnMessage(msg Message) {
	f(msg)
}

// Discard drops every message
var Discard Sink = SinkFunc(func(Message) {})

// Multi fans a message out to every sink in order
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(msg Message) {
		for _, s := range sinks {
			s.OnMessage(msg)
		}
	})
}

// ZapSink writes console messages to a zap logger
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink logging under the "console" name
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("console")}
}

// OnMessage logs the message at a level matching its kind
func (z *ZapSink) OnMessage(msg Message) {
	fields := []zap.Field{zap.Time("emitted_at", msg.Timestamp)}
	switch msg.Kind {
	case KindError:
		z.logger.Warn(msg.Text, fields...)
	case KindWarn:
		z.logger.Info(msg.Text, fields...)
	default:
		z.logger.Debug(msg.Text, fields...)
	}
}

// Buffer keeps the most recent messages up to a fixed capacity
type Buffer struct {
	mu       sync.Mutex
	capacity int
	messages []Message
}

// NewBuffer creates a buffer holding at most capacity messages
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{capacity: capacity}
}

// OnMessage appends msg, dropping the oldest message when full
func (b *Buffer) OnMessage(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) == b.capacity {
		copy(b.messages, b.messages[1:])
		b.messages = b.messages[:len(b.messages)-1]
	}
	b.messages = append(b.messages, msg)
}

// Messages returns a copy of the buffered messages, oldest first
func (b *Buffer) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Clear removes every buffered message
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

package mqtt

import (
	"context"
	"sync"

	coremqtt "github.com/kilianp07/evdash/core/mqtt"
)

// Published is one message captured by MockSession.
type Published struct {
	Topic   string
	Payload string
}

// MockSession is an in-memory Session used in tests. Publish records the
// message and Deliver feeds inbound messages to the handler.
type MockSession struct {
	mu        sync.Mutex
	handler   coremqtt.Handler
	Messages  []Published
	FailTopic map[string]error
	closed    bool
}

var _ coremqtt.Session = (*MockSession)(nil)

// NewMockSession creates a connected MockSession.
func NewMockSession(handler coremqtt.Handler) *MockSession {
	return &MockSession{handler: handler, FailTopic: make(map[string]error)}
}

// Publish records the message or returns the configured error.
func (m *MockSession) Publish(ctx context.Context, topic, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return coremqtt.ErrNotConnected
	}
	if err := m.FailTopic[topic]; err != nil {
		return err
	}
	m.Messages = append(m.Messages, Published{Topic: topic, Payload: payload})
	return nil
}

// Deliver simulates an inbound message.
func (m *MockSession) Deliver(topic, payload string) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(topic, payload)
	}
}

// Sent returns a copy of the published messages.
func (m *MockSession) Sent() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.Messages...)
}

// IsConnected reports false after Close.
func (m *MockSession) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Close marks the session closed.
func (m *MockSession) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

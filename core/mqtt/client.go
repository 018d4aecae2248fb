package mqtt

import "context"

// Handler receives inbound broker messages in arrival order.
type Handler func(topic, payload string)

// Session is a live broker connection subscribed to the telemetry wildcard.
type Session interface {
	// Publish sends a payload and waits for the broker to accept it.
	Publish(ctx context.Context, topic, payload string) error

	// IsConnected reports whether the transport is currently up.
	IsConnected() bool

	// Close unsubscribes and disconnects.
	Close() error
}

// Package pubsub is the message bus the watermill relay runs on. It hides
// watermill behind a small Publisher/Subscriber contract and adds optional
// OpenTelemetry tracing.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the bus topic, one per channel name.
	Topic string
	// Origin identifies the registry that sent the message.
	Origin string
	// Payload contains the encoded relay frame.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with
	// the handler in the background until ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

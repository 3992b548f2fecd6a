package transport

import (
	"context"
	"sync"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/pubsub"
)

var _ channel.Relay = (*Watermill)(nil)

// Bus is the part of the watermill bridge the relay needs.
type Bus interface {
	pubsub.Publisher
	pubsub.Subscriber
}

// Watermill relays frames over a watermill bus, one bus topic per channel.
// Frames one sender publishes on a channel arrive in publish order.
type Watermill struct {
	bus    Bus
	origin string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewWatermill creates a relay on bus. origin tags outgoing messages for
// tracing; it does not affect delivery.
func NewWatermill(bus Bus, origin string) *Watermill {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watermill{bus: bus, origin: origin, ctx: ctx, cancel: cancel}
}

// Send publishes frame on the bus topic of name.
func (w *Watermill) Send(ctx context.Context, name string, frame []byte) error {
	if w.isClosed() {
		return ErrClosed
	}
	return w.bus.Publish(ctx, pubsub.Message{
		Topic:   name,
		Origin:  w.origin,
		Payload: frame,
	})
}

// Subscribe starts a bus subscription for name.
func (w *Watermill) Subscribe(name string, deliver func([]byte)) (func(), error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(w.ctx)
	w.mu.Unlock()

	err := w.bus.Subscribe(ctx, name, func(_ context.Context, msg pubsub.Message) error {
		deliver(msg.Payload)
		return nil
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return cancel, nil
}

// Close ends every subscription and closes the bus.
func (w *Watermill) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	return w.bus.Close()
}

func (w *Watermill) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

package pubsub

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// WatermillBridge implements the Publisher and Subscriber interfaces using watermill's GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	// Logger for watermill to use
	logger watermill.LoggerAdapter
}

const (
	// Metadata keys used to transfer our Message structure fields through watermill's message.
	metaKeyOrigin = "origin"
	metaKeyTopic  = "topic"
)

// BridgeOption configures a WatermillBridge.
type BridgeOption func(*bridgeOptions)

type bridgeOptions struct {
	tracer       trace.Tracer
	outputBuffer int64
}

// WithTracer traces publish and process operations with tracer.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(o *bridgeOptions) {
		o.tracer = tracer
	}
}

// WithOutputBuffer sets the per-subscriber channel buffer of the GoChannel.
func WithOutputBuffer(size int64) BridgeOption {
	return func(o *bridgeOptions) {
		o.outputBuffer = size
	}
}

// NewWatermillBridge initializes an in-memory bus. Every registry relayed
// through one bridge shares its topics.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	o := bridgeOptions{outputBuffer: 64}
	for _, opt := range opts {
		opt(&o)
	}

	logger := watermill.NewStdLogger(false, false)
	// GoChannel hands every message to each subscriber on its own goroutine.
	// Waiting for the acks keeps one sender's messages in publish order.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            o.outputBuffer,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	wb := &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		tracer: o.tracer,
		logger: logger,
	}
	if o.tracer != nil {
		wb.pub = NewPublisherTracingMiddleware(goChannel, o.tracer)
	}
	return wb
}

// mapToWatermillMessage converts our pubsub.Message to a watermill message.
func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyOrigin, msg.Origin)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our internal pubsub.Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := maps.Clone(map[string]string(wmMsg.Metadata))
	delete(metadata, metaKeyOrigin)
	delete(metadata, metaKeyTopic)

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		Origin:   wmMsg.Metadata.Get(metaKeyOrigin),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements the Subscriber interface.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	process := func(wmMsg *message.Message) ([]*message.Message, error) {
		return nil, handler(wmMsg.Context(), mapToPubSubMessage(wmMsg))
	}
	if wb.tracer != nil {
		process = TracingMiddleware(wb.tracer)(process)
	}

	// Messages are acked as soon as they are queued, so a handler that
	// publishes never waits on its own subscription. The loop ends when ctx is
	// canceled: GoChannel closes the output channel.
	box := newInbox()
	go func() {
		for wmMsg := range messages {
			box.push(wmMsg)
			wmMsg.Ack()
		}
		box.close()
	}()

	go func() {
		for {
			wmMsg, ok := box.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				continue
			}
			if _, err := process(wmMsg); err != nil {
				// Handler errors are final: a frame rejected once would be
				// rejected again.
				slog.Error("Failed to handle message, dropping it", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close implements the Publisher and Subscriber interface to shut down the bridge.
func (wb *WatermillBridge) Close() error {
	// Closing the subscriber will close the gochannel and stop message consumption.
	return wb.sub.Close()
}

// inbox is an unbounded FIFO between a subscription loop and its handler
// goroutine. push never blocks.
type inbox struct {
	mu     sync.Mutex
	items  []*message.Message
	closed bool
	signal chan struct{}
}

func newInbox() *inbox {
	return &inbox{signal: make(chan struct{}, 1)}
}

func (b *inbox) push(msg *message.Message) {
	b.mu.Lock()
	b.items = append(b.items, msg)
	b.mu.Unlock()
	b.notify()
}

func (b *inbox) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.notify()
}

func (b *inbox) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// next blocks until a message is available. It reports false once the inbox
// is closed and empty.
func (b *inbox) next() (*message.Message, bool) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			msg := b.items[0]
			b.items[0] = nil
			b.items = b.items[1:]
			b.mu.Unlock()
			return msg, true
		}
		if b.closed {
			b.mu.Unlock()
			return nil, false
		}
		b.mu.Unlock()
		<-b.signal
	}
}

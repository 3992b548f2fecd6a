package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startSpan opens a relay span named after operation and topic and moves msg
// into the span's context.
func startSpan(tracer trace.Tracer, operation, topic string, msg *message.Message) trace.Span {
	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "relay."+operation+"."+topic,
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", operation),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message_id", msg.UUID),
			attribute.String("shellbus.origin", msg.Metadata.Get(metaKeyOrigin)),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
			attribute.String("messaging.message_payload_preview", payloadPreview(msg.Payload)),
		),
	)
	msg.SetContext(ctx)
	return span
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TracingMiddleware creates a watermill middleware that traces the processing
// of relayed frames.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			span := startSpan(tracer, "process", msg.Metadata.Get(metaKeyTopic), msg)
			defer span.End()

			produced, err := h(msg)
			if err != nil {
				failSpan(span, err)
				return nil, err
			}
			span.SetAttributes(attribute.Int("messaging.messages_produced", len(produced)))
			return produced, nil
		}
	}
}

// PublisherTracingMiddleware wraps a publisher with tracing capabilities
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware creates a new publisher with tracing middleware
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Publish opens one span per message for the duration of the publish.
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, len(messages))
	for i, msg := range messages {
		spans[i] = startSpan(p.tracer, "publish", topic, msg)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			failSpan(span, err)
		}
		span.End()
	}
	return err
}

// Close closes the underlying publisher
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}

// payloadPreview returns the first 100 bytes of a payload. Msgpack frames are
// binary, so the preview is only meaningful for JSON.
func payloadPreview(payload []byte) string {
	const previewLen = 100
	if len(payload) > previewLen {
		return string(payload[:previewLen]) + "..."
	}
	return string(payload)
}

package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingBridge_RecordsPublishAndProcessSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	bridge := NewWatermillBridge(WithTracer(tp.Tracer("test")))
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "Topic-theme|1", func(_ context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:   "Topic-theme|1",
		Origin:  "shell",
		Payload: []byte(`{"name":"dark"}`),
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "shell", msg.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.Eventually(t, func() bool {
		return len(recorder.Ended()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	names := make([]string, 0, 2)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "relay.publish.Topic-theme|1")
	assert.Contains(t, names, "relay.process.Topic-theme|1")
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("publish down") }
func (failingPublisher) Close() error                               { return nil }

func TestPublisherTracingMiddleware_MarksFailedPublish(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pub := NewPublisherTracingMiddleware(failingPublisher{}, tp.Tracer("test"))
	msg := mapToWatermillMessage(context.Background(), Message{Topic: "t", Origin: "mfe-a", Payload: []byte("frame")})
	require.Error(t, pub.Publish("t", msg))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "relay.publish.t", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("shellbus.origin", "mfe-a"))
	assert.Contains(t, span.Attributes(), attribute.String("messaging.operation", "publish"))
	assert.Contains(t, span.Attributes(), attribute.String("messaging.message_payload_preview", "frame"))
}

func TestSetupOTel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, cleanup, err := SetupOTel(ctx, TracingConfig{Enabled: false})
		require.NoError(t, err)
		require.NotNil(t, tracer)
		require.NotNil(t, cleanup)

		_, span := tracer.Start(ctx, "test")
		assert.False(t, span.SpanContext().IsValid())
		span.End()
		cleanup()
	})

	t.Run("enabled tracing", func(t *testing.T) {
		config := DefaultTracingConfig()
		config.Enabled = true
		config.ZipkinURL = "http://invalid-url:9411/api/v2/spans"

		tracer, cleanup, err := SetupOTel(ctx, config)
		require.NoError(t, err)
		require.NotNil(t, tracer)
		cleanup()
	})
}

func TestPayloadPreview(t *testing.T) {
	assert.Equal(t, "short", payloadPreview([]byte("short")))

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	preview := payloadPreview(long)
	assert.Len(t, preview, 103)
	assert.Equal(t, "...", preview[100:])
}

package transport

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/pubsub"
)

// Kind names a relay implementation.
type Kind string

const (
	KindNone      Kind = "none"
	KindMemory    Kind = "memory"
	KindWatermill Kind = "watermill"
	KindNATS      Kind = "nats"
	KindRedis     Kind = "redis"
	KindWebSocket Kind = "websocket"
)

// Options selects and configures a relay.
type Options struct {
	Kind     Kind
	Origin   string
	NATSURL  string
	RedisURL string
	HubURL   string
	// Tracer, when set, traces the watermill bus.
	Tracer trace.Tracer
}

// New builds the relay described by o. KindNone yields a nil relay, which
// keeps a registry local.
func New(ctx context.Context, o Options) (channel.Relay, error) {
	switch o.Kind {
	case "", KindNone:
		return nil, nil
	case KindMemory:
		return NewMemory(), nil
	case KindWatermill:
		var opts []pubsub.BridgeOption
		if o.Tracer != nil {
			opts = append(opts, pubsub.WithTracer(o.Tracer))
		}
		return NewWatermill(pubsub.NewWatermillBridge(opts...), o.Origin), nil
	case KindNATS:
		r, err := DialNATS(o.NATSURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindRedis:
		r, err := DialRedis(ctx, o.RedisURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindWebSocket:
		r, err := DialWebSocket(ctx, o.HubURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, o.Kind)
	}
}

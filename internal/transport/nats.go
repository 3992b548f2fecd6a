package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nfrund/shellbus/internal/channel"
)

var _ channel.Relay = (*NATS)(nil)

// NATS relays frames over core NATS subjects, one subject per channel.
// Delivery is at most once; frames of one channel arrive in order.
type NATS struct {
	nc     *nats.Conn
	owned  bool
	logger *slog.Logger
}

// DialNATS connects to url and returns a relay owning the connection.
func DialNATS(url string, opts ...nats.Option) (*NATS, error) {
	logger := slog.Default().With("component", "nats_relay")
	base := []nats.Option{
		nats.Name("shellbus"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{nc: nc, owned: true, logger: logger}, nil
}

// NewNATS wraps an existing connection. Close leaves it open.
func NewNATS(nc *nats.Conn) *NATS {
	return &NATS{nc: nc, logger: slog.Default().With("component", "nats_relay")}
}

// Send publishes frame on the subject of name.
func (n *NATS) Send(ctx context.Context, name string, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.nc.IsClosed() {
		return ErrClosed
	}
	return n.nc.Publish(NATSSubject(name), frame)
}

// Subscribe subscribes to the subject of name.
func (n *NATS) Subscribe(name string, deliver func([]byte)) (func(), error) {
	sub, err := n.nc.Subscribe(NATSSubject(name), func(m *nats.Msg) {
		deliver(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil && !n.nc.IsClosed() {
			n.logger.Debug("Failed to unsubscribe", "channel", name, "error", err)
		}
	}, nil
}

// Close drains the connection when the relay owns it.
func (n *NATS) Close() error {
	if !n.owned {
		return nil
	}
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return err
	}
	return nil
}

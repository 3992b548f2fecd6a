package channel

import "context"

// Relay carries envelopes between registries living in different script
// contexts (other processes, other hosts). Frames are opaque to the relay.
//
// Relays are best-effort: a Send error is logged by the registry and the
// local delivery still happens.
type Relay interface {
	// Send broadcasts frame to every registry subscribed to name, possibly
	// including the sender.
	Send(ctx context.Context, name string, frame []byte) error
	// Subscribe starts delivering frames for name until cancel is called.
	Subscribe(name string, deliver func(frame []byte)) (cancel func(), err error)
	// Close releases the underlying connection.
	Close() error
}

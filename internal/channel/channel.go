package channel

import (
	"context"
	"sync"
)

// Channel is a handle on one named channel, the Go counterpart of a browser
// BroadcastChannel instance. Closing it detaches every listener that was
// added through it and turns later posts into no-ops.
type Channel struct {
	reg  *Registry
	name string

	mu        sync.Mutex
	listeners []*Listener
	closed    bool
}

// Open returns a new handle on the channel called name.
func (r *Registry) Open(name string) *Channel {
	return &Channel{reg: r, name: name}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// PostMessage broadcasts data on the channel.
func (c *Channel) PostMessage(ctx context.Context, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil
	}
	return c.reg.Post(ctx, c.name, data)
}

// AddListener registers fn on the channel.
func (c *Channel) AddListener(fn ListenerFunc) *Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		l := &Listener{name: c.name, fn: fn}
		l.closed.Store(true)
		return l
	}
	l := c.reg.AddListener(c.name, fn)
	c.listeners = append(c.listeners, l)
	return l
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close detaches all listeners added through this handle. Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ls := c.listeners
	c.listeners = nil
	c.mu.Unlock()

	for _, l := range ls {
		l.Close()
	}
}

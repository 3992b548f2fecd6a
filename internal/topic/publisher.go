package topic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/codec"
)

// Publisher is the write-only handle used by the producer owning a topic.
// The split from Topic is a usage contract; the channel itself has no access
// control.
//
// A replaying Publisher keeps the last value seen on its channel and answers
// sync requests with it, so late joiners recover the value even when no Topic
// instance is alive.
type Publisher[T any] struct {
	name    string
	version int
	replay  bool
	codec   codec.Codec
	logger  *slog.Logger
	ch      *channel.Channel

	mu        sync.Mutex
	raw       []byte
	has       bool
	destroyed bool
}

// NewPublisher creates a publisher bound to (name, version) on reg.
func NewPublisher[T any](reg *channel.Registry, name string, version int, opts ...Option) *Publisher[T] {
	o := buildOptions(name, version, opts)
	p := &Publisher[T]{
		name:    name,
		version: version,
		replay:  o.replay,
		codec:   o.codec,
		logger:  o.logger.With("role", "publisher"),
		ch:      reg.Open(ChannelName(name, version)),
	}
	if p.replay {
		p.ch.AddListener(p.onEvent)
	}
	return p
}

// Name returns the topic name.
func (p *Publisher[T]) Name() string { return p.name }

// Version returns the topic version.
func (p *Publisher[T]) Version() int { return p.version }

// Publish broadcasts v to every Topic of (name, version). It returns once the
// message has been handed to the transport; there is no acknowledgement.
func (p *Publisher[T]) Publish(ctx context.Context, v T) error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	data, err := p.codec.Marshal(v)
	if err != nil {
		return err
	}
	raw, err := encodeFrame(p.codec, kindNext, p.name, p.version, data)
	if err != nil {
		return err
	}

	// The replay cache is filled by onEvent when the frame comes back on the
	// channel, so a post that fails leaves nothing to answer sync requests with.
	return p.ch.PostMessage(ctx, raw)
}

// Destroy detaches the publisher. Later Publish calls are no-ops. Idempotent.
func (p *Publisher[T]) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.mu.Unlock()
	p.ch.Close()
}

func (p *Publisher[T]) onEvent(ev *channel.Event) {
	f, err := decodeFrame(p.codec, ev.Data)
	if err != nil || f.Name != p.name || f.Version != p.version {
		return
	}
	switch f.Kind {
	case kindNext:
		p.mu.Lock()
		p.raw, p.has = f.Data, true
		p.mu.Unlock()
	case kindSyncRequest:
		p.mu.Lock()
		has, data := p.has, p.raw
		p.mu.Unlock()
		if !has {
			return
		}
		raw, err := encodeFrame(p.codec, kindSyncResponse, p.name, p.version, data)
		if err != nil {
			p.logger.Warn("Failed to encode sync response", "error", err)
			return
		}
		if err := p.ch.PostMessage(context.Background(), raw); err != nil {
			p.logger.Warn("Failed to answer sync request", "error", err)
		}
	}
}

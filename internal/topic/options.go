package topic

import (
	"log/slog"

	"github.com/nfrund/shellbus/internal/codec"
)

type options struct {
	replay bool
	codec  codec.Codec
	logger *slog.Logger
}

// Option configures a Topic or Publisher.
type Option func(*options)

// WithoutReplay turns off last-value recovery. Use it for action and event
// streams, where a late joiner must never observe an event that already fired.
func WithoutReplay() Option {
	return WithReplay(false)
}

// WithReplay sets whether late joiners recover the last published value.
func WithReplay(replay bool) Option {
	return func(o *options) {
		o.replay = replay
	}
}

// WithCodec sets the payload codec. Every instance of a topic must agree on it.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(name string, version int, opts []Option) options {
	o := options{
		replay: true,
		codec:  codec.JSON,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", "topic", "topic", name, "version", version)
	return o
}

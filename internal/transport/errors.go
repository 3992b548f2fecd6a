package transport

import "errors"

var (
	// ErrClosed is returned when a relay is used after Close.
	ErrClosed = errors.New("relay closed")
	// ErrUnknownTransport is returned by New for an unsupported kind.
	ErrUnknownTransport = errors.New("unknown transport")
	// ErrNotConnected is returned when a network relay has no live connection.
	ErrNotConnected = errors.New("relay not connected")
)

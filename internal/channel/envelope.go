package channel

// Envelope is the unit transmitted over a channel.
type Envelope struct {
	// Name is the channel the envelope was posted to.
	Name string
	// Origin identifies the registry (script context) that posted it.
	Origin string
	// Data is the serialized message. Every listener receives its own copy.
	Data []byte
}

// Event is what a listener is invoked with. It carries the envelope plus the
// propagation control shared by all listeners of a single dispatch.
type Event struct {
	Envelope
	stopped bool
}

// StopImmediatePropagation prevents the remaining listeners of this dispatch
// from being invoked.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
}

// ListenerFunc handles envelopes delivered on a channel.
type ListenerFunc func(ev *Event)

// wireFrame is how an envelope travels through a relay.
type wireFrame struct {
	Origin string `json:"origin" msgpack:"origin"`
	Name   string `json:"name" msgpack:"name"`
	Data   []byte `json:"data" msgpack:"data"`
}

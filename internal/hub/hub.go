// Package hub routes relay frames between websocket clients. Each client
// subscribes to channel names; a frame published on a channel goes to every
// other client subscribed to it.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nfrund/shellbus/internal/transport"
)

// Subscriber represents a single connected client. The hub sends encoded
// hub messages to Send; the client is responsible for reading from it.
type Subscriber struct {
	ID string
	// Send is a buffered channel of outbound messages. The hub closes it when
	// the subscriber is unregistered.
	Send chan []byte

	channels map[string]struct{}
}

// NewSubscriber creates a subscriber with a send buffer of size buffer.
func NewSubscriber(id string, buffer int) *Subscriber {
	return &Subscriber{
		ID:       id,
		Send:     make(chan []byte, buffer),
		channels: make(map[string]struct{}),
	}
}

type subscription struct {
	sub     *Subscriber
	channel string
	add     bool
}

type publication struct {
	from    *Subscriber
	channel string
	frame   []byte
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Subscribers int `json:"subscribers"`
	Channels    int `json:"channels"`
}

// Hub maintains the set of active subscribers and routes frames by channel.
// All state is owned by the Run goroutine.
type Hub struct {
	subscribers map[*Subscriber]bool
	byChannel   map[string]map[*Subscriber]struct{}

	// Register is a channel for new subscribers to register with the hub.
	Register chan *Subscriber
	// Unregister is a channel for subscribers to unregister from the hub.
	Unregister chan *Subscriber

	subscriptions chan subscription
	publications  chan publication
	stats         chan chan Stats
	done          chan struct{}

	metrics *Metrics
	logger  *slog.Logger
}

// Metrics counts hub activity.
type Metrics struct {
	Subscribers prometheus.Gauge
	Routed      *prometheus.CounterVec
	Dropped     prometheus.Counter
}

// NewMetrics creates hub metrics and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shellbus",
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Connected hub clients.",
		}),
		Routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus",
			Subsystem: "hub",
			Name:      "frames_routed_total",
			Help:      "Frames delivered to hub clients.",
		}, []string{"channel"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shellbus",
			Subsystem: "hub",
			Name:      "slow_subscribers_dropped_total",
			Help:      "Clients disconnected because their send buffer was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Subscribers, m.Routed, m.Dropped)
	}
	return m
}

// NewHub creates and returns a new Hub instance. metrics may be nil.
func NewHub(metrics *Metrics) *Hub {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Hub{
		subscribers:   make(map[*Subscriber]bool),
		byChannel:     make(map[string]map[*Subscriber]struct{}),
		Register:      make(chan *Subscriber),
		Unregister:    make(chan *Subscriber),
		subscriptions: make(chan subscription),
		publications:  make(chan publication, 256),
		stats:         make(chan chan Stats),
		done:          make(chan struct{}),
		metrics:       metrics,
		logger:        slog.Default().With("component", "hub"),
	}
}

// Subscribe adds channel to the subscriptions of s.
func (h *Hub) Subscribe(s *Subscriber, channel string) {
	select {
	case h.subscriptions <- subscription{sub: s, channel: channel, add: true}:
	case <-h.done:
	}
}

// Unsubscribe removes channel from the subscriptions of s.
func (h *Hub) Unsubscribe(s *Subscriber, channel string) {
	select {
	case h.subscriptions <- subscription{sub: s, channel: channel}:
	case <-h.done:
	}
}

// Publish routes frame to every subscriber of channel except from.
func (h *Hub) Publish(from *Subscriber, channel string, frame []byte) {
	select {
	case h.publications <- publication{from: from, channel: channel, frame: frame}:
	case <-h.done:
	}
}

// Stats returns the current subscriber and channel counts.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
		return <-reply
	case <-h.done:
		return Stats{}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run starts the hub's processing loop and blocks until ctx is canceled.
// It must be run in a separate goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for s := range h.subscribers {
			h.drop(s)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.Register:
			h.subscribers[s] = true
			h.metrics.Subscribers.Set(float64(len(h.subscribers)))
			h.logger.Info("Subscriber registered", "id", s.ID, "total_subscribers", len(h.subscribers))

		case s := <-h.Unregister:
			if h.subscribers[s] {
				h.drop(s)
				h.logger.Info("Subscriber unregistered", "id", s.ID, "total_subscribers", len(h.subscribers))
			}

		case sub := <-h.subscriptions:
			if !h.subscribers[sub.sub] {
				continue
			}
			if sub.add {
				h.join(sub.sub, sub.channel)
			} else {
				h.leave(sub.sub, sub.channel)
			}

		case p := <-h.publications:
			h.route(p)

		case reply := <-h.stats:
			reply <- Stats{Subscribers: len(h.subscribers), Channels: len(h.byChannel)}
		}
	}
}

func (h *Hub) join(s *Subscriber, channel string) {
	members, ok := h.byChannel[channel]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.byChannel[channel] = members
	}
	members[s] = struct{}{}
	s.channels[channel] = struct{}{}
}

func (h *Hub) leave(s *Subscriber, channel string) {
	delete(s.channels, channel)
	if members, ok := h.byChannel[channel]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.byChannel, channel)
		}
	}
}

func (h *Hub) drop(s *Subscriber) {
	for channel := range s.channels {
		h.leave(s, channel)
	}
	delete(h.subscribers, s)
	close(s.Send)
	h.metrics.Subscribers.Set(float64(len(h.subscribers)))
}

func (h *Hub) route(p publication) {
	members := h.byChannel[p.channel]
	if len(members) == 0 {
		return
	}
	payload, err := json.Marshal(transport.HubMessage{Op: transport.OpMessage, Channel: p.channel, Frame: p.frame})
	if err != nil {
		h.logger.Error("Failed to encode hub message", "channel", p.channel, "error", err)
		return
	}

	for s := range members {
		if s == p.from {
			continue
		}
		// Use a non-blocking send. A full buffer means the client is lagging
		// or gone, so it is disconnected.
		select {
		case s.Send <- payload:
			h.metrics.Routed.WithLabelValues(p.channel).Inc()
		default:
			h.drop(s)
			h.metrics.Dropped.Inc()
			h.logger.Warn("Unregistering slow subscriber", "id", s.ID, "total_subscribers", len(h.subscribers))
		}
	}
}

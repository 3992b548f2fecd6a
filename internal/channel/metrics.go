package channel

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors updated by a Registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Posted         *prometheus.CounterVec
	Delivered      *prometheus.CounterVec
	Dropped        *prometheus.CounterVec
	ListenerPanics *prometheus.CounterVec
	RelayErrors    *prometheus.CounterVec
	Listeners      *prometheus.GaugeVec
}

// NewMetrics creates the channel collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"channel"}
	m := &Metrics{
		Posted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "posted_total",
			Help: "Envelopes posted to a channel.",
		}, labels),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "delivered_total",
			Help: "Envelope deliveries to individual listeners.",
		}, labels),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "dropped_total",
			Help: "Envelopes that found no listener.",
		}, labels),
		ListenerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "listener_panics_total",
			Help: "Listener invocations that panicked.",
		}, labels),
		RelayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "relay_errors_total",
			Help: "Relay send, subscribe or decode failures.",
		}, labels),
		Listeners: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shellbus", Subsystem: "channel", Name: "listeners",
			Help: "Currently registered listeners.",
		}, labels),
	}
	if reg != nil {
		reg.MustRegister(m.Posted, m.Delivered, m.Dropped, m.ListenerPanics, m.RelayErrors, m.Listeners)
	}
	return m
}

func (m *Metrics) posted(name string) {
	if m != nil {
		m.Posted.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) delivered(name string) {
	if m != nil {
		m.Delivered.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) dropped(name string) {
	if m != nil {
		m.Dropped.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) panicked(name string) {
	if m != nil {
		m.ListenerPanics.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) relayFailed(name string) {
	if m != nil {
		m.RelayErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) listenerAdded(name string) {
	if m != nil {
		m.Listeners.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) listenerRemoved(name string) {
	if m != nil {
		m.Listeners.WithLabelValues(name).Dec()
	}
}

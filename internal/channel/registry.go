// Package channel implements the broadcast transport underneath topics: a
// registry of named channels delivering envelopes to every listener of a name,
// optionally bridged to other registries through a Relay.
package channel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/shellbus/internal/codec"
)

// Delivery selects when listeners are invoked relative to Post.
type Delivery int

const (
	// Sync delivers on the posting goroutine before Post returns, unless a
	// delivery is already in progress, in which case the envelope is queued
	// behind it.
	Sync Delivery = iota
	// Deferred delivers from a background goroutine.
	Deferred
)

func (d Delivery) String() string {
	if d == Deferred {
		return "deferred"
	}
	return "sync"
}

// ParseDelivery converts "sync" or "deferred" into a Delivery.
func ParseDelivery(s string) (Delivery, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sync":
		return Sync, nil
	case "deferred":
		return Deferred, nil
	default:
		return Sync, fmt.Errorf("unknown delivery mode %q", s)
	}
}

// relaySendTimeout bounds a single relay Send made from the delivery queue.
const relaySendTimeout = 5 * time.Second

// Listener is a registered callback on one channel name.
type Listener struct {
	name   string
	fn     ListenerFunc
	reg    *Registry
	closed atomic.Bool
}

// Name returns the channel the listener is attached to.
func (l *Listener) Name() string {
	return l.name
}

// Closed reports whether the listener has been detached.
func (l *Listener) Closed() bool {
	return l.closed.Load()
}

// Close detaches the listener. It is safe to call more than once and from
// inside the listener itself.
func (l *Listener) Close() {
	if l.reg == nil {
		l.closed.Store(true)
		return
	}
	l.reg.RemoveListener(l)
}

type queued struct {
	env     Envelope
	forward bool
}

// Registry owns the listeners of every channel name in one script context.
// Construct one per application (or per test) and inject it wherever topics
// are created.
type Registry struct {
	origin   string
	delivery Delivery
	relay    Relay
	codec    codec.Codec
	metrics  *Metrics
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[string][]*Listener
	closed    bool

	relayMu   sync.Mutex
	relaySubs map[string]func()

	qmu      sync.Mutex
	queue    []queued
	draining bool
	pending  int
	idle     chan struct{}

	wake chan struct{}
	done chan struct{}
	ctx  context.Context
	stop context.CancelFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithDelivery sets the delivery mode. The default is Sync.
func WithDelivery(d Delivery) Option {
	return func(r *Registry) {
		r.delivery = d
	}
}

// WithRelay bridges the registry to other script contexts.
func WithRelay(relay Relay) Option {
	return func(r *Registry) {
		r.relay = relay
	}
}

// WithCodec sets the codec used to frame envelopes for the relay.
func WithCodec(c codec.Codec) Option {
	return func(r *Registry) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithMetrics records registry activity in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOrigin fixes the origin identifier instead of generating one.
func WithOrigin(origin string) Option {
	return func(r *Registry) {
		if origin != "" {
			r.origin = origin
		}
	}
}

// NewRegistry creates a registry. It never fails: without a relay it simply
// behaves as an in-memory broadcast channel for the local context.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		origin:    uuid.NewString(),
		delivery:  Sync,
		codec:     codec.JSON,
		logger:    slog.Default().With("component", "channel"),
		listeners: make(map[string][]*Listener),
		relaySubs: make(map[string]func()),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("origin", r.origin)
	r.ctx, r.stop = context.WithCancel(context.Background())

	if r.delivery == Deferred {
		go r.worker()
	}
	return r
}

// Origin returns the identifier stamped on every envelope posted here.
func (r *Registry) Origin() string {
	return r.origin
}

// Delivery returns the configured delivery mode.
func (r *Registry) Delivery() Delivery {
	return r.delivery
}

// AddListener registers fn for name. Listeners are invoked in registration order.
func (r *Registry) AddListener(name string, fn ListenerFunc) *Listener {
	l := &Listener{name: name, fn: fn, reg: r}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		l.closed.Store(true)
		return l
	}
	first := len(r.listeners[name]) == 0
	r.listeners[name] = append(r.listeners[name], l)
	r.mu.Unlock()

	r.metrics.listenerAdded(name)
	if first {
		r.syncRelay(name)
	}
	return l
}

// RemoveListener detaches exactly one listener. Envelopes already queued for
// it are skipped.
func (r *Registry) RemoveListener(l *Listener) {
	if l == nil || !l.closed.CompareAndSwap(false, true) {
		return
	}

	r.mu.Lock()
	ls := r.listeners[l.name]
	idx := slices.Index(ls, l)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	ls = slices.Delete(slices.Clone(ls), idx, idx+1)
	last := len(ls) == 0
	if last {
		delete(r.listeners, l.name)
	} else {
		r.listeners[l.name] = ls
	}
	r.mu.Unlock()

	r.metrics.listenerRemoved(l.name)
	if last {
		r.syncRelay(l.name)
	}
}

// ListenerCount returns how many listeners are attached to name.
func (r *Registry) ListenerCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[name])
}

// Names returns the channel names that currently have listeners.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.listeners))
	for name := range r.listeners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Post broadcasts data to every listener of name, in this registry and, when a
// relay is configured, in every other registry reachable through it. It is
// fire-and-forget: an envelope that finds no listener is dropped.
func (r *Registry) Post(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.isClosed() {
		return nil
	}
	r.metrics.posted(name)
	r.enqueue(queued{
		env:     Envelope{Name: name, Origin: r.origin, Data: bytes.Clone(data)},
		forward: r.relay != nil,
	})
	return nil
}

// Flush blocks until every queued envelope has been delivered. It must not be
// called from inside a listener.
func (r *Registry) Flush(ctx context.Context) error {
	for {
		r.qmu.Lock()
		if r.pending == 0 {
			r.qmu.Unlock()
			return nil
		}
		if r.idle == nil {
			r.idle = make(chan struct{})
		}
		idle := r.idle
		r.qmu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops delivery and cancels relay subscriptions. The relay itself is
// owned by the caller and stays open.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	r.stop()

	r.relayMu.Lock()
	subs := r.relaySubs
	r.relaySubs = make(map[string]func())
	r.relayMu.Unlock()
	for _, cancel := range subs {
		cancel()
	}

	r.qmu.Lock()
	r.queue = nil
	r.pending = 0
	if r.idle != nil {
		close(r.idle)
		r.idle = nil
	}
	r.qmu.Unlock()
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Registry) enqueue(q queued) {
	r.qmu.Lock()
	r.queue = append(r.queue, q)
	r.pending++
	if r.delivery == Deferred {
		r.qmu.Unlock()
		select {
		case r.wake <- struct{}{}:
		default:
		}
		return
	}
	if r.draining {
		r.qmu.Unlock()
		return
	}
	r.draining = true
	r.qmu.Unlock()
	r.drain()
}

func (r *Registry) worker() {
	for {
		select {
		case <-r.wake:
			r.qmu.Lock()
			r.draining = true
			r.qmu.Unlock()
			r.drain()
		case <-r.done:
			return
		}
	}
}

// drain delivers queued envelopes in FIFO order until the queue is empty.
// The caller must have set r.draining.
func (r *Registry) drain() {
	for {
		r.qmu.Lock()
		if len(r.queue) == 0 {
			r.draining = false
			r.qmu.Unlock()
			return
		}
		q := r.queue[0]
		r.queue = r.queue[1:]
		r.qmu.Unlock()

		if q.forward {
			r.forward(q.env)
		}
		r.dispatch(q.env)

		r.qmu.Lock()
		if r.pending > 0 {
			r.pending--
		}
		if r.pending == 0 && r.idle != nil {
			close(r.idle)
			r.idle = nil
		}
		r.qmu.Unlock()
	}
}

func (r *Registry) dispatch(env Envelope) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := slices.Clone(r.listeners[env.Name])
	r.mu.Unlock()

	if len(snapshot) == 0 {
		r.metrics.dropped(env.Name)
		return
	}

	ev := &Event{Envelope: env}
	for _, l := range snapshot {
		if l.closed.Load() {
			continue
		}
		ev.Data = bytes.Clone(env.Data)
		r.invoke(l, ev)
		if ev.stopped {
			break
		}
	}
}

func (r *Registry) invoke(l *Listener, ev *Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.panicked(l.name)
			r.logger.Error("Channel listener panicked", "channel", l.name, "panic", rec)
		}
	}()
	l.fn(ev)
	r.metrics.delivered(l.name)
}

func (r *Registry) forward(env Envelope) {
	frame, err := r.codec.Marshal(wireFrame{Origin: env.Origin, Name: env.Name, Data: env.Data})
	if err != nil {
		r.metrics.relayFailed(env.Name)
		r.logger.Error("Failed to encode relay frame", "channel", env.Name, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.ctx, relaySendTimeout)
	defer cancel()
	if err := r.relay.Send(ctx, env.Name, frame); err != nil {
		r.metrics.relayFailed(env.Name)
		r.logger.Warn("Relay send failed, delivered locally only", "channel", env.Name, "error", err)
	}
}

// receive handles a frame arriving from the relay.
func (r *Registry) receive(name string, frame []byte) {
	var wf wireFrame
	if err := r.codec.Unmarshal(frame, &wf); err != nil {
		r.metrics.relayFailed(name)
		r.logger.Warn("Discarding undecodable relay frame", "channel", name, "error", err)
		return
	}
	if wf.Origin == r.origin || wf.Name != name {
		return
	}
	if r.isClosed() {
		return
	}
	r.enqueue(queued{env: Envelope{Name: wf.Name, Origin: wf.Origin, Data: wf.Data}})
}

// syncRelay makes the relay subscription for name match the listener count
// as it is now. Concurrent add and remove calls each re-read the count under
// relayMu, so the last one to run leaves the right state behind.
func (r *Registry) syncRelay(name string) {
	if r.relay == nil {
		return
	}
	r.relayMu.Lock()
	r.mu.Lock()
	want := !r.closed && len(r.listeners[name]) > 0
	r.mu.Unlock()

	cancel, have := r.relaySubs[name]
	switch {
	case want && !have:
		defer r.relayMu.Unlock()
		cancel, err := r.relay.Subscribe(name, func(frame []byte) {
			r.receive(name, frame)
		})
		if err != nil {
			r.metrics.relayFailed(name)
			r.logger.Warn("Relay subscribe failed, channel is local only", "channel", name, "error", err)
			return
		}
		r.relaySubs[name] = cancel
		r.logger.Debug("Subscribed channel to relay", "channel", name)
	case !want && have:
		delete(r.relaySubs, name)
		r.relayMu.Unlock()
		cancel()
		r.logger.Debug("Released relay subscription", "channel", name)
	default:
		r.relayMu.Unlock()
	}
}

// Package topic implements versioned, named, replayable streams on top of the
// channel transport.
//
// Every Topic and Publisher constructed with the same (name, version) shares
// one broadcast channel, whichever registry or relay-joined context created
// it. A replaying Topic recovers the last value published before it existed
// by broadcasting a sync request that any current holder answers.
package topic

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/codec"
)

// Topic is a typed, versioned, optionally replaying stream of T.
type Topic[T any] struct {
	name    string
	version int
	replay  bool
	codec   codec.Codec
	logger  *slog.Logger
	ch      *channel.Channel

	mu        sync.Mutex
	value     T
	raw       []byte
	has       bool
	state     State
	gen       uint64
	subs      []*subscriber[T]
	destroyed bool
	synced    chan struct{}
}

var _ Observable[struct{}] = (*Topic[struct{}])(nil)

// New creates a topic bound to (name, version) on reg. It never fails; with
// replay enabled it immediately asks existing holders for the current value.
func New[T any](reg *channel.Registry, name string, version int, opts ...Option) *Topic[T] {
	o := buildOptions(name, version, opts)
	t := &Topic[T]{
		name:    name,
		version: version,
		replay:  o.replay,
		codec:   o.codec,
		logger:  o.logger,
		ch:      reg.Open(ChannelName(name, version)),
		state:   StateUninitialized,
		synced:  make(chan struct{}),
	}
	t.ch.AddListener(t.onEvent)

	if t.replay {
		t.mu.Lock()
		t.state = StateSyncing
		t.mu.Unlock()
		t.post(context.Background(), kindSyncRequest, nil)
	}
	return t
}

// Name returns the topic name.
func (t *Topic[T]) Name() string { return t.name }

// Version returns the topic version.
func (t *Topic[T]) Version() int { return t.version }

// ReplayLast reports whether the topic recovers values published before it existed.
func (t *Topic[T]) ReplayLast() bool { return t.replay }

// Observable returns the read-only view of the topic.
func (t *Topic[T]) Observable() Observable[T] {
	return t
}

// Value returns the last received value. The boolean is false until a value
// has been received, which distinguishes "never published" from a published
// zero value.
func (t *Topic[T]) Value() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.has
}

// State returns the current synchronization state.
func (t *Topic[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Synchronized is closed the first time the topic receives a value. It stays
// open forever when no holder ever answers.
func (t *Topic[T]) Synchronized() <-chan struct{} {
	return t.synced
}

// Publish broadcasts v as the new value of (name, version). After Destroy it
// is a no-op.
func (t *Topic[T]) Publish(ctx context.Context, v T) error {
	t.mu.Lock()
	destroyed := t.destroyed
	t.mu.Unlock()
	if destroyed {
		return nil
	}
	data, err := t.codec.Marshal(v)
	if err != nil {
		return err
	}
	return t.post(ctx, kindNext, data)
}

// Subscribe invokes fn for every value received from now on. A replaying
// topic that already holds a value invokes fn with it first.
func (t *Topic[T]) Subscribe(fn func(T)) *Subscription {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return closedSubscription()
	}
	s := &subscriber[T]{fn: fn}
	s.sub = newSubscription(func() { t.unsubscribe(s) })
	t.subs = append(t.subs, s)
	replay, gen, current := t.replay && t.has, t.gen, t.value
	t.mu.Unlock()

	if replay {
		t.offer(s, gen, current)
	}
	return s.sub
}

// Values streams values on a buffered channel that is closed when ctx is
// done or the topic is destroyed.
func (t *Topic[T]) Values(ctx context.Context, buffer int) <-chan T {
	if buffer < 1 {
		buffer = 1
	}
	out := make(chan T, buffer)
	var (
		mu     sync.Mutex
		closed bool
	)
	sub := t.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- v:
		default:
			t.logger.Warn("Value channel full, dropping value", "buffer", buffer)
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.Done():
		}
		sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}

// Destroy detaches the topic from its channel and ends every subscription.
// The cached value stays readable. Idempotent.
func (t *Topic[T]) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.state = StateDestroyed
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	t.ch.Close()
	for _, s := range subs {
		s.sub.finish()
	}
}

func (t *Topic[T]) unsubscribe(s *subscriber[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx := slices.Index(t.subs, s); idx >= 0 {
		t.subs = slices.Delete(slices.Clone(t.subs), idx, idx+1)
	}
}

func (t *Topic[T]) post(ctx context.Context, k kind, data []byte) error {
	raw, err := encodeFrame(t.codec, k, t.name, t.version, data)
	if err != nil {
		t.logger.Error("Failed to encode frame", "kind", k, "error", err)
		return err
	}
	return t.ch.PostMessage(ctx, raw)
}

func (t *Topic[T]) onEvent(ev *channel.Event) {
	f, err := decodeFrame(t.codec, ev.Data)
	if err != nil {
		t.logger.Warn("Ignoring undecodable message", "origin", ev.Origin, "error", err)
		return
	}
	if f.Name != t.name || f.Version != t.version {
		return
	}

	switch f.Kind {
	case kindNext:
		t.accept(f.Data, false)
	case kindSyncResponse:
		if t.replay {
			t.accept(f.Data, true)
		}
	case kindSyncRequest:
		if t.replay {
			t.answer()
		}
	default:
		t.logger.Debug("Ignoring unknown frame kind", "kind", f.Kind)
	}
}

// accept stores a received value and fans it out. Sync responses are only
// taken while syncing: the first arrival wins and a late response never
// overwrites a live value.
func (t *Topic[T]) accept(data []byte, fromSync bool) {
	var v T
	if err := t.codec.Unmarshal(data, &v); err != nil {
		t.logger.Warn("Ignoring value that does not decode", "error", err)
		return
	}

	t.mu.Lock()
	if t.destroyed || (fromSync && t.state != StateSyncing) {
		t.mu.Unlock()
		return
	}
	t.value, t.raw, t.has = v, data, true
	t.gen++
	gen := t.gen
	if t.state != StateSynchronized {
		t.state = StateSynchronized
		close(t.synced)
	}
	subs := slices.Clone(t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		t.offer(s, gen, v)
	}
}

func (t *Topic[T]) answer() {
	t.mu.Lock()
	has, raw := t.has, t.raw
	t.mu.Unlock()
	if !has {
		return
	}
	if err := t.post(context.Background(), kindSyncResponse, raw); err != nil {
		t.logger.Warn("Failed to answer sync request", "error", err)
	}
}

// offer hands the value of generation gen to s. A subscriber never sees an
// older generation after a newer one, and its callback never runs twice at
// once: whoever is already delivering to s picks the value up.
func (t *Topic[T]) offer(s *subscriber[T], gen uint64, v T) {
	if !s.push(gen, v) {
		return
	}
	for {
		v, ok := s.pop()
		if !ok {
			return
		}
		t.deliver(s, v)
	}
}

func (t *Topic[T]) deliver(s *subscriber[T], v T) {
	select {
	case <-s.sub.Done():
		return
	default:
	}
	defer func() {
		if rec := recover(); rec != nil {
			t.logger.Error("Topic subscriber panicked", "panic", rec)
		}
	}()
	s.fn(v)
}

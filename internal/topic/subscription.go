package topic

import (
	"context"
	"sync"
)

// Observable is the read side of a topic: a multicast, push-based stream that
// ends when the topic is destroyed.
type Observable[T any] interface {
	// Subscribe invokes fn for every value. Replaying topics first invoke it
	// with the cached value, if any.
	Subscribe(fn func(T)) *Subscription
	// Values streams values on a channel until ctx is done or the topic is
	// destroyed. Values are dropped when the buffer is full.
	Values(ctx context.Context, buffer int) <-chan T
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	once   sync.Once
	done   chan struct{}
	detach func()
}

func newSubscription(detach func()) *Subscription {
	return &Subscription{done: make(chan struct{}), detach: detach}
}

func closedSubscription() *Subscription {
	s := newSubscription(nil)
	s.finish()
	return s
}

// Unsubscribe stops delivery. Idempotent.
func (s *Subscription) Unsubscribe() {
	if s.detach != nil {
		s.detach()
	}
	s.finish()
}

// Done is closed once the subscription has ended, either through
// Unsubscribe or because the topic was destroyed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

type subscriber[T any] struct {
	fn  func(T)
	sub *Subscription

	mu      sync.Mutex
	last    uint64
	pending []T
	running bool
}

// push queues v unless a value of the same or a newer generation was already
// queued. It reports whether the caller must run the delivery loop.
func (s *subscriber[T]) push(gen uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.last {
		return false
	}
	s.last = gen
	s.pending = append(s.pending, v)
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		s.running = false
		var zero T
		return zero, false
	}
	v := s.pending[0]
	var zero T
	s.pending[0] = zero
	s.pending = s.pending[1:]
	return v, true
}

// Package transport contains the relays that join channel registries living
// in different script contexts: in-process (memory, watermill) and
// cross-process (NATS, Redis, websocket hub).
package transport

import (
	"bytes"
	"context"
	"sync"

	"github.com/nfrund/shellbus/internal/channel"
)

var _ channel.Relay = (*Memory)(nil)

// Memory is a process-local relay. Every registry sharing one Memory behaves
// like a separate realm on the same origin. Delivery is synchronous.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func([]byte)
	closed bool
}

// NewMemory creates an empty in-process relay.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]func([]byte))}
}

// Send delivers frame to every subscriber of name.
func (m *Memory) Send(ctx context.Context, name string, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]func([]byte), 0, len(m.subs[name]))
	for _, deliver := range m.subs[name] {
		targets = append(targets, deliver)
	}
	m.mu.RUnlock()

	for _, deliver := range targets {
		deliver(bytes.Clone(frame))
	}
	return nil
}

// Subscribe registers deliver for name.
func (m *Memory) Subscribe(name string, deliver func([]byte)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if _, ok := m.subs[name]; !ok {
		m.subs[name] = make(map[int]func([]byte))
	}
	id := m.nextID
	m.nextID++
	m.subs[name][id] = deliver

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if byName, ok := m.subs[name]; ok {
			delete(byName, id)
			if len(byName) == 0 {
				delete(m.subs, name)
			}
		}
	}
	return cancel, nil
}

// Close drops all subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[string]map[int]func([]byte))
	return nil
}

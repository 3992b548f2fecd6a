package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/nfrund/shellbus/internal/channel"
)

var _ channel.Relay = (*WebSocket)(nil)

const (
	wsReadLimit    = 1 << 20
	wsWriteTimeout = 5 * time.Second
)

// WebSocket relays frames through a shellbus hub over one websocket
// connection. Subscriptions are multiplexed: the hub learns about a channel
// with the first local subscriber and forgets it with the last.
type WebSocket struct {
	conn   *websocket.Conn
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func([]byte)
	closed bool
}

// DialWebSocket connects to the hub at url, e.g. ws://localhost:8080/ws.
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", url, err)
	}
	conn.SetReadLimit(wsReadLimit)

	rctx, cancel := context.WithCancel(context.Background())
	w := &WebSocket{
		conn:   conn,
		logger: slog.Default().With("component", "websocket_relay", "hub", url),
		ctx:    rctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[string]map[int]func([]byte)),
	}
	go w.readLoop()
	return w, nil
}

// Send publishes frame to the hub. The hub never echoes a frame to the
// connection that published it, so Send also hands it to the local
// subscribers of name, like the Memory and Watermill relays do.
func (w *WebSocket) Send(ctx context.Context, name string, frame []byte) error {
	if err := w.write(ctx, HubMessage{Op: OpPublish, Channel: name, Frame: frame}); err != nil {
		return err
	}
	for _, deliver := range w.targets(name) {
		deliver(bytes.Clone(frame))
	}
	return nil
}

// Subscribe registers deliver for name, subscribing at the hub on first use.
func (w *WebSocket) Subscribe(name string, deliver func([]byte)) (func(), error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	first := len(w.subs[name]) == 0
	if first {
		w.subs[name] = make(map[int]func([]byte))
	}
	id := w.nextID
	w.nextID++
	w.subs[name][id] = deliver
	w.mu.Unlock()

	if first {
		if err := w.write(w.ctx, HubMessage{Op: OpSubscribe, Channel: name}); err != nil {
			w.remove(name, id)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if w.remove(name, id) {
				if err := w.write(w.ctx, HubMessage{Op: OpUnsubscribe, Channel: name}); err != nil {
					w.logger.Debug("Failed to unsubscribe at hub", "channel", name, "error", err)
				}
			}
		})
	}, nil
}

// Close closes the connection and waits for the read loop to end.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.subs = make(map[string]map[int]func([]byte))
	w.mu.Unlock()

	err := w.conn.Close(websocket.StatusNormalClosure, "relay closed")
	w.cancel()
	<-w.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Done is closed when the connection to the hub is gone.
func (w *WebSocket) Done() <-chan struct{} {
	return w.done
}

// remove drops one subscriber and reports whether it was the last for name.
func (w *WebSocket) remove(name string, id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	byName, ok := w.subs[name]
	if !ok {
		return false
	}
	delete(byName, id)
	if len(byName) == 0 {
		delete(w.subs, name)
		return true
	}
	return false
}

func (w *WebSocket) write(ctx context.Context, msg HubMessage) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case <-w.done:
		return ErrNotConnected
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, w.conn, msg)
}

func (w *WebSocket) readLoop() {
	defer close(w.done)
	for {
		var msg HubMessage
		if err := wsjson.Read(w.ctx, w.conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || w.ctx.Err() != nil {
				w.logger.Debug("Hub connection closed", "status", status)
			} else {
				w.logger.Warn("Hub connection lost", "error", err)
			}
			return
		}
		if msg.Op != OpMessage {
			continue
		}

		for _, deliver := range w.targets(msg.Channel) {
			deliver(msg.Frame)
		}
	}
}

func (w *WebSocket) targets(name string) []func([]byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	targets := make([]func([]byte), 0, len(w.subs[name]))
	for _, deliver := range w.subs[name] {
		targets = append(targets, deliver)
	}
	return targets
}

package pubsub

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "Topic-events|1", func(_ context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "Topic-events|1",
		Origin:   "mfe-a",
		Payload:  []byte("frame"),
		Metadata: map[string]string{"request_id": "req-1"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "Topic-events|1", msg.Topic)
		assert.Equal(t, "mfe-a", msg.Origin)
		assert.Equal(t, []byte("frame"), msg.Payload)
		assert.Equal(t, "req-1", msg.Metadata["request_id"])
		assert.NotContains(t, msg.Metadata, metaKeyOrigin)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestWatermillBridge_HandlerErrorDoesNotStopLoop(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 8)
	require.NoError(t, bridge.Subscribe(ctx, "t", func(_ context.Context, msg Message) error {
		calls <- string(msg.Payload)
		if string(msg.Payload) == "1" {
			return errors.New("handler failed")
		}
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "t", Payload: []byte("1")}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "t", Payload: []byte("2")}))

	seen := map[string]int{}
	for range 2 {
		select {
		case p := <-calls:
			seen[p]++
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called")
		}
	}
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, seen, "a failed message is not redelivered")
}

func TestWatermillBridge_PublishHonoursCanceledContext(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bridge.Publish(ctx, Message{Topic: "t"}), context.Canceled)
}

func TestWatermillBridge_PreservesPublishOrder(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 300
	var (
		mu  sync.Mutex
		got [2][]int
	)
	for i := range got {
		require.NoError(t, bridge.Subscribe(ctx, "ordered", func(_ context.Context, msg Message) error {
			v, err := strconv.Atoi(string(msg.Payload))
			if err != nil {
				return err
			}
			mu.Lock()
			got[i] = append(got[i], v)
			mu.Unlock()
			return nil
		}))
	}

	want := make([]int, n)
	for i := range n {
		want[i] = i
		require.NoError(t, bridge.Publish(ctx, Message{Topic: "ordered", Payload: []byte(strconv.Itoa(i))}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got[0]) == n && len(got[1]) == n
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, got[0])
	assert.Equal(t, want, got[1])
}

func TestWatermillBridge_HandlerMayPublish(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	echoed := make(chan string, 1)
	require.NoError(t, bridge.Subscribe(ctx, "ping", func(ctx context.Context, msg Message) error {
		return bridge.Publish(ctx, Message{Topic: "pong", Payload: msg.Payload})
	}))
	require.NoError(t, bridge.Subscribe(ctx, "pong", func(_ context.Context, msg Message) error {
		echoed <- string(msg.Payload)
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "ping", Payload: []byte("hello")}))

	select {
	case v := <-echoed:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("nested publish did not complete")
	}
}

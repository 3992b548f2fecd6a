package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SendReachesSubscribersOfName(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	var a, b, other [][]byte
	_, err := m.Subscribe("Topic-theme|1", func(f []byte) { a = append(a, f) })
	require.NoError(t, err)
	_, err = m.Subscribe("Topic-theme|1", func(f []byte) { b = append(b, f) })
	require.NoError(t, err)
	_, err = m.Subscribe("Topic-theme|2", func(f []byte) { other = append(other, f) })
	require.NoError(t, err)

	frame := []byte("frame")
	require.NoError(t, m.Send(context.Background(), "Topic-theme|1", frame))
	frame[0] = 'X'

	assert.Equal(t, [][]byte{[]byte("frame")}, a, "subscribers get their own copy")
	assert.Equal(t, [][]byte{[]byte("frame")}, b)
	assert.Empty(t, other)
}

func TestMemory_CancelStopsDelivery(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	calls := 0
	cancel, err := m.Subscribe("c", func([]byte) { calls++ })
	require.NoError(t, err)

	require.NoError(t, m.Send(context.Background(), "c", nil))
	cancel()
	cancel()
	require.NoError(t, m.Send(context.Background(), "c", nil))

	assert.Equal(t, 1, calls)
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Send(context.Background(), "c", nil), ErrClosed)
	_, err := m.Subscribe("c", func([]byte) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "c", nil), context.Canceled)
}

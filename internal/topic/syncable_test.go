package topic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellbus/internal/channel"
	"github.com/nfrund/shellbus/internal/testutils"
	"github.com/nfrund/shellbus/internal/topic"
	"github.com/nfrund/shellbus/internal/transport"
)

func waitSynchronized[T any](t *testing.T, tp *topic.Topic[T]) {
	t.Helper()
	select {
	case <-tp.Synchronized():
	case <-time.After(2 * time.Second):
		t.Fatalf("topic %s did not synchronize, state %s", tp.Name(), tp.State())
	}
}

func TestSyncable_LateJoinerRecoversFromTopic(t *testing.T) {
	reg := newRegistry(t)

	early := topic.New[theme](reg, "theme", 1)
	require.NoError(t, early.Publish(context.Background(), theme{Name: "dark"}))

	late := topic.New[theme](reg, "theme", 1)
	defer late.Destroy()

	assert.Equal(t, topic.StateSynchronized, late.State())
	v, ok := late.Value()
	require.True(t, ok)
	assert.Equal(t, "dark", v.Name)
}

func TestSyncable_LateJoinerRecoversFromPublisherOnly(t *testing.T) {
	reg := newRegistry(t)

	pub := topic.NewPublisher[theme](reg, "theme", 1)
	require.NoError(t, pub.Publish(context.Background(), theme{Name: "dark"}))

	late := topic.New[theme](reg, "theme", 1)
	v, ok := late.Value()
	require.True(t, ok)
	assert.Equal(t, "dark", v.Name)
}

func TestSyncable_PublisherAnswersWithLatestValueOnChannel(t *testing.T) {
	reg := newRegistry(t)

	pubA := topic.NewPublisher[int](reg, "counter", 1)
	pubB := topic.NewPublisher[int](reg, "counter", 1, topic.WithoutReplay())
	require.NoError(t, pubA.Publish(context.Background(), 1))
	require.NoError(t, pubB.Publish(context.Background(), 2))

	late := topic.New[int](reg, "counter", 1)
	v, ok := late.Value()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSyncable_FailedPublishIsNotReplayed(t *testing.T) {
	reg := newRegistry(t)
	pub := topic.NewPublisher[string](reg, "route", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pub.Publish(ctx, "never-sent"), context.Canceled)

	late := topic.New[string](reg, "route", 1)
	defer late.Destroy()
	_, ok := late.Value()
	assert.False(t, ok)
	assert.Equal(t, topic.StateSyncing, late.State())

	require.NoError(t, pub.Publish(context.Background(), "sent"))
	v, ok := late.Value()
	require.True(t, ok)
	assert.Equal(t, "sent", v)
}

func TestSyncable_StaysSyncingWithoutHolder(t *testing.T) {
	reg := newRegistry(t)

	tp := topic.New[theme](reg, "theme", 1)
	assert.Equal(t, topic.StateSyncing, tp.State())
	_, ok := tp.Value()
	assert.False(t, ok)

	select {
	case <-tp.Synchronized():
		t.Fatal("must not synchronize without a holder")
	default:
	}

	require.NoError(t, topic.NewPublisher[theme](reg, "theme", 1).Publish(context.Background(), theme{Name: "first"}))
	assert.Equal(t, topic.StateSynchronized, tp.State())
}

func TestSyncable_NoReplayNeverSeesEarlierPublish(t *testing.T) {
	reg := newRegistry(t)

	pub := topic.NewPublisher[string](reg, "events", 1, topic.WithoutReplay())
	early := topic.New[string](reg, "events", 1)
	require.NoError(t, pub.Publish(context.Background(), "logoutButtonClicked"))
	_, ok := early.Value()
	require.True(t, ok, "a replaying holder on the channel has the event")

	late := topic.New[string](reg, "events", 1, topic.WithoutReplay())
	assert.Equal(t, topic.StateUninitialized, late.State())
	_, ok = late.Value()
	assert.False(t, ok)

	seen := &collector[string]{}
	late.Subscribe(seen.add)
	assert.Empty(t, seen.get())

	require.NoError(t, pub.Publish(context.Background(), "navigated"))
	assert.Equal(t, []string{"navigated"}, seen.get())
}

func TestSyncable_NoReplaySubscriberGetsNoCachedValue(t *testing.T) {
	reg := newRegistry(t)
	events := topic.New[string](reg, "events", 1, topic.WithoutReplay())
	require.NoError(t, events.Publish(context.Background(), "a"))

	seen := &collector[string]{}
	events.Subscribe(seen.add)
	assert.Empty(t, seen.get())
}

func TestSyncable_LiveValueBeatsLateSyncResponse(t *testing.T) {
	relay := transport.NewMemory()
	holderReg := newRegistry(t, channel.WithRelay(relay), channel.WithDelivery(channel.Deferred))
	joinerReg := newRegistry(t, channel.WithRelay(relay))

	holder := topic.New[int](holderReg, "counter", 1)
	require.NoError(t, holder.Publish(context.Background(), 1))
	waitSynchronized(t, holder)

	gate := make(chan struct{})
	holderReg.AddListener("gate", func(*channel.Event) { <-gate })
	require.NoError(t, holderReg.Post(context.Background(), "gate", nil))

	// The holder's registry is blocked, so the sync request waits in its
	// queue while a live value reaches the joiner first.
	joiner := topic.New[int](joinerReg, "counter", 1)
	require.NoError(t, topic.NewPublisher[int](joinerReg, "counter", 1, topic.WithoutReplay()).Publish(context.Background(), 5))
	assert.Equal(t, topic.StateSynchronized, joiner.State())

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, holderReg.Flush(ctx))

	v, _ := joiner.Value()
	assert.Equal(t, 5, v)
}

func TestSyncable_DeferredDelivery(t *testing.T) {
	reg := newRegistry(t, channel.WithDelivery(channel.Deferred))

	pub := topic.NewPublisher[theme](reg, "theme", 1)
	require.NoError(t, pub.Publish(context.Background(), theme{Name: "dark"}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, reg.Flush(ctx))

	late := topic.New[theme](reg, "theme", 1)
	waitSynchronized(t, late)

	v, ok := late.Value()
	require.True(t, ok)
	assert.Equal(t, "dark", v.Name)
}

func TestSyncable_AcrossRelayedRegistries(t *testing.T) {
	shell, remote := testutils.RegistryPair(t)

	pub := topic.NewPublisher[theme](shell, "theme", 1)
	require.NoError(t, pub.Publish(context.Background(), theme{Name: "dark"}))

	late := topic.New[theme](remote, "theme", 1)
	waitSynchronized(t, late)
	v, _ := late.Value()
	assert.Equal(t, "dark", v.Name)
	testutils.Flush(t, shell, remote)

	other := topic.New[theme](remote, "theme", 2)
	assert.Equal(t, topic.StateSyncing, other.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", topic.StateUninitialized.String())
	assert.Equal(t, "syncing", topic.StateSyncing.String())
	assert.Equal(t, "synchronized", topic.StateSynchronized.String())
	assert.Equal(t, "destroyed", topic.StateDestroyed.String())
	assert.Equal(t, "Topic-theme|1", topic.ChannelName("theme", 1))
}

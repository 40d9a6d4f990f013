package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestBroadcast_ReachesEverySubscriber(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	sub1, err := b.SubscribeBroadcast(ctx, "snapshots")
	require.NoError(t, err)
	sub2, err := b.SubscribeBroadcast(ctx, "snapshots")
	require.NoError(t, err)

	require.NoError(t, b.Broadcast(ctx, "snapshots", []byte("hello")))

	assert.Equal(t, []byte("hello"), recvOne(t, sub1).Payload)
	assert.Equal(t, []byte("hello"), recvOne(t, sub2).Payload)
}

func TestBroadcast_NoSubscribersIsNotAnError(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	assert.NoError(t, b.Broadcast(context.Background(), "snapshots", []byte("x")))
}

func TestSend_CompetingConsumers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	sub1, err := b.Subscribe(ctx, "inbox")
	require.NoError(t, err)
	sub2, err := b.Subscribe(ctx, "inbox")
	require.NoError(t, err)

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, b.Send(ctx, "inbox", []byte{byte(i)}))
	}

	// Each message goes to exactly one of the two subscribers.
	seen := make(map[byte]int)
	for i := 0; i < n; i++ {
		select {
		case msg := <-sub1:
			seen[msg.Payload[0]]++
		case msg := <-sub2:
			seen[msg.Payload[0]]++
		case <-time.After(2 * time.Second):
			t.Fatal("timed out draining inbox")
		}
	}
	assert.Len(t, seen, n)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

func TestSend_OrderPreservedPerDestination(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "inbox")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Send(ctx, "inbox", []byte{byte(i)}))
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, byte(i), recvOne(t, sub).Payload[0])
	}
}

func TestSend_BeforeSubscribeIsBuffered(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Send(ctx, "inbox", []byte("queued")))

	sub, err := b.Subscribe(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, []byte("queued"), recvOne(t, sub).Payload)
}

// Closing the bus must terminate every delivery, including a pump blocked
// handing an unread message to a slow subscriber: the subscription channel
// closes instead of hanging.
func TestClose_ReleasesUndeliveredBacklog(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "inbox")
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, "inbox", []byte("unread")))
	require.NoError(t, b.Send(ctx, "inbox", []byte("also unread")))

	require.NoError(t, b.Close())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed after bus close")
		}
	}
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Send(context.Background(), "inbox", []byte("x")), ErrBusClosed)
	assert.ErrorIs(t, b.Broadcast(context.Background(), "t", []byte("x")), ErrBusClosed)
	_, err := b.Subscribe(context.Background(), "inbox")
	assert.ErrorIs(t, err, ErrBusClosed)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Broadcast(Event{Type: "source_status_changed", Data: SourceStatusData{SourceID: 1, IsOnline: true}})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "source_status_changed", ev.Type)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()
	require.Equal(t, 1, b.Count())

	b.Unsubscribe(id)
	assert.Equal(t, 0, b.Count())

	_, open := <-ch
	assert.False(t, open, "channel closed on unsubscribe")

	// Unsubscribing twice is a no-op.
	b.Unsubscribe(id)
}

func TestBroadcaster_DropsFullSubscriberAfterSweep(t *testing.T) {
	b := NewBroadcaster()
	_, slow := b.Subscribe()

	// Fill the buffer, then one more; the failed send marks it dead.
	for i := 0; i <= subscriberBuffer; i++ {
		b.Broadcast(Event{Type: "tick", Data: i})
	}
	assert.Equal(t, 0, b.Count())

	// Buffered events stay readable, then the channel closes.
	for i := 0; i < subscriberBuffer; i++ {
		ev, open := <-slow
		require.True(t, open)
		assert.Equal(t, i, ev.Data)
	}
	_, open := <-slow
	assert.False(t, open, "saturated subscriber is removed and closed")
}

func TestBroadcaster_BroadcastNeverBlocks(t *testing.T) {
	b := NewBroadcaster()
	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			b.Broadcast(Event{Type: "tick", Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stuck subscriber")
	}
}

func TestBroadcaster_UnsubscribeDuringBroadcast(t *testing.T) {
	b := NewBroadcaster()

	ids := make([]int64, 0, 500)
	for i := 0; i < 500; i++ {
		id, _ := b.Subscribe()
		ids = append(ids, id)
	}

	// Clients disconnecting while events are in flight must never make
	// Broadcast send on a closed channel.
	done := make(chan struct{})
	go func() {
		for _, id := range ids {
			b.Unsubscribe(id)
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		b.Broadcast(Event{Type: "tick", Data: i})
	}
	<-done

	assert.Equal(t, 0, b.Count())
}

func TestBroadcaster_BroadcastWithNoSubscribers(t *testing.T) {
	b := NewBroadcaster()
	b.Broadcast(Event{Type: "tick"})
	assert.Equal(t, 0, b.Count())
}

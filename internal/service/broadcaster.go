package service

import (
	"sync"
	"time"

	"github.com/streamvault/streamvault/internal/infrastructure/logger"
)

// Event is one push message on the live channel.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ConnectedData is sent once to every new subscriber.
type ConnectedData struct {
	ConnectionID int64     `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// SourceStatusData announces a liveness transition for one source. Attempt
// and MaxAttempts are only set when a bounded re-check task triggered the
// probe.
type SourceStatusData struct {
	SourceID    int64     `json:"source_id"`
	IsOnline    bool      `json:"is_online"`
	Timestamp   time.Time `json:"timestamp"`
	Attempt     int       `json:"attempt,omitempty"`
	MaxAttempts int       `json:"max_attempts,omitempty"`
}

const subscriberBuffer = 16

// Broadcaster fans state-change events out to every live subscriber.
// Broadcasting is best effort: a slow or gone subscriber is dropped, never
// waited on, so a stuck client can not stall the job that emitted the event.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]chan Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int64]chan Event)}
}

// Subscribe registers a new live connection and returns its id and channel.
// The caller owns the subscription and must Unsubscribe when the connection
// closes.
func (b *Broadcaster) Subscribe() (int64, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Broadcast delivers an event to every subscriber. The lock is held across
// the whole sweep so an Unsubscribe can never close a channel between the
// iteration and the send; the sends are non-blocking, so holding it is
// bounded. A full buffer counts as a failed send and drops the subscriber.
func (b *Broadcaster) Broadcast(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var dead []int64
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return
	}
	for _, id := range dead {
		ch := b.subs[id]
		delete(b.subs, id)
		close(ch)
	}
	logger.Info.Printf("dropped %d dead subscribers, %d remaining", len(dead), len(b.subs))
}

// BroadcastSourceStatus is the common case: a liveness transition.
func (b *Broadcaster) BroadcastSourceStatus(data SourceStatusData) {
	b.Broadcast(Event{Type: "source_status_changed", Data: data})
}

// Package bus provides the in-memory pub/sub channel connecting the session
// pump and state watchers to streaming subscribers (SSE, websocket).
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Topic names published on the bus.
const (
	// TopicFrame carries one base64-encoded frame line per event, verbatim
	// from the CV pipeline's stdout.
	TopicFrame = "cv-frame"

	// TopicRepUpdate signals that the rep log changed on disk.
	TopicRepUpdate = "rep-update"

	// TopicMetricsUpdate signals that the live metrics snapshot changed.
	TopicMetricsUpdate = "metrics-update"
)

// Event is one published message.
type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data,omitempty"`
}

// Subscription is one subscriber's view of the bus. Events arrive on C in
// publish order; events are dropped, never delayed, when C's buffer is full.
type Subscription struct {
	ID     uuid.UUID
	C      <-chan Event
	topics map[string]struct{}
	ch     chan Event
}

// wants reports whether the subscription asked for the given topic.
// An empty topic set means all topics.
func (s *Subscription) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// Bus is a thread-safe broadcast hub. Publishing never blocks: slow
// subscribers lose events rather than stalling the publisher.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*Subscription
	bufSize int
	dropped atomic.Uint64
}

// New creates a Bus whose subscriber channels hold bufSize events.
func New(bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = 100
	}
	return &Bus{
		subs:    make(map[uuid.UUID]*Subscription),
		bufSize: bufSize,
	}
}

// Subscribe registers a new subscriber. With no topics, the subscriber
// receives every event; otherwise only events on the named topics.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufSize)
	sub := &Subscription{
		ID: uuid.New(),
		C:  ch,
		ch: ch,
	}
	if len(topics) > 0 {
		sub.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}

	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
}

// Publish delivers an event to every interested subscriber. Non-blocking:
// a full subscriber buffer drops the event for that subscriber only.
func (b *Bus) Publish(topic string, data interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Data: data}
	for _, sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns the total number of events dropped due to full
// subscriber buffers since the bus was created.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unsubscribes everyone. Further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Package bus is a small typed in-process event bus. It replaces the ad-hoc
// window-level events the browser client used: topics are named, and every
// subscription has an explicit cancel to pair with the subscriber's teardown.
package bus

import (
	"sync"
	"time"
)

type Topic string

const (
	// TopicLeadActivity signals that a lead's upstream activity may have
	// changed and cached feed state should be invalidated.
	TopicLeadActivity Topic = "lead.activity"
)

// Event is one published notification. LeadID may be empty for broadcast
// events that concern every lead.
type Event struct {
	Topic  Topic
	LeadID string
	At     time.Time
}

type subscriber struct {
	ch chan Event
}

type Bus struct {
	mu   sync.Mutex
	subs map[Topic][]*subscriber
}

func New() *Bus {
	return &Bus{subs: make(map[Topic][]*subscriber)}
}

// Subscribe registers for a topic and returns the receive channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (b *Bus) Subscribe(topic Topic) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 16)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[topic]
			for i, s := range list {
				if s == sub {
					b.subs[topic] = append(list[:i], list[i+1:]...)
					break
				}
			}
			close(sub.ch)
		})
	}

	return sub.ch, cancel
}

// Publish delivers to every current subscriber of the event's topic without
// blocking: a subscriber with a full buffer misses the event. Delivery runs
// under the bus lock so it cannot race a cancel closing the channel.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

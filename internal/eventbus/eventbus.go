package eventbus

import "sync"

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// Topic scopes event delivery to one audience: a holder's private feed, a
// requester's private feed, or the global dashboard feed. Keying delivery by
// topic keeps per-subscriber work independent of the number of entities in
// the system.
type Topic string

// TopicGlobal receives every published event.
const TopicGlobal Topic = "global"

// HolderTopic returns the private topic for a resource holder.
func HolderTopic(id string) Topic { return Topic("holder/" + id) }

// RequesterTopic returns the private topic for a requester.
func RequesterTopic(id string) Topic { return Topic("requester/" + id) }

// Message pairs an event with the topic it was published on. Firehose
// subscribers receive Messages so they can route by topic.
type Message struct {
	Topic Topic
	Event Event
}

// Bus is a topic-keyed publish/subscribe bus. Delivery is per-topic FIFO and
// non-blocking: a subscriber that cannot keep up drops events, which is safe
// because every payload is a full state replacement rather than a delta.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]chan Event
	all    []chan Message
	closed bool
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]chan Event)}
}

// Publish sends the event to subscribers of the topic and to all firehose
// subscribers. Delivery is non-blocking.
func (b *Bus) Publish(topic Topic, e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- e:
		default:
		}
	}
	msg := Message{Topic: topic, Event: e}
	for _, ch := range b.all {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a subscriber for one topic and returns its channel.
func (b *Bus) Subscribe(topic Topic) <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs[topic] = append(b.subs[topic], ch)
	}
	b.mu.Unlock()
	return ch
}

// SubscribeAll registers a firehose subscriber receiving every event with its
// topic attached.
func (b *Bus) SubscribeAll() <-chan Message {
	ch := make(chan Message, 64)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.all = append(b.all, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber from the topic and closes its channel.
func (b *Bus) Unsubscribe(topic Topic, sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chans := b.subs[topic]
	for i, ch := range chans {
		if ch == sub {
			b.subs[topic] = append(chans[:i], chans[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// UnsubscribeAll removes a firehose subscriber and closes its channel.
func (b *Bus) UnsubscribeAll(sub <-chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.all {
		if ch == sub {
			b.all = append(b.all[:i], b.all[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the registry.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
	b.subs = nil
	b.all = nil
	b.mu.Unlock()
}

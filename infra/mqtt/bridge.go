package mqtt

import (
	"context"
	"encoding/json"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/events"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
)

// DefaultTopicPrefix prefixes every broker topic published by the bridge.
const DefaultTopicPrefix = "curanode"

// envelope is the wire format of a fan-out message.
type envelope struct {
	Kind string       `json:"kind"`
	Data events.Event `json:"data"`
}

// Bridge republishes every in-process event to the broker, mapping bus
// topics one-to-one onto MQTT topics: curanode/holder/<id>,
// curanode/requester/<id> and curanode/global. Subscribers therefore only
// receive traffic scoped to them instead of filtering a firehose client
// side. Delivery is at-least-once; payloads are full state replacements so
// duplicates are harmless.
type Bridge struct {
	bus    *eventbus.Bus
	pub    Publisher
	log    logger.Logger
	prefix string
}

// NewBridge creates a Bridge. An empty prefix defaults to "curanode".
func NewBridge(bus *eventbus.Bus, pub Publisher, log logger.Logger, prefix string) *Bridge {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Bridge{bus: bus, pub: pub, log: log, prefix: prefix}
}

// Run forwards events until the context is canceled or the bus closes. It
// must run outside any holder lock; the bus decouples it from the mutation
// path.
func (b *Bridge) Run(ctx context.Context) {
	ch := b.bus.SubscribeAll()
	defer b.bus.UnsubscribeAll(ch)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.forward(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) forward(msg eventbus.Message) {
	ev, ok := msg.Event.(events.Event)
	if !ok {
		b.log.Warnf("dropping non-event payload on topic %s", msg.Topic)
		return
	}
	raw, err := json.Marshal(envelope{Kind: ev.Kind(), Data: ev})
	if err != nil {
		b.log.Errorf("encode %s: %v", ev.Kind(), err)
		return
	}
	topic := b.prefix + "/" + string(msg.Topic)
	if err := b.pub.Publish(topic, raw); err != nil {
		b.log.Errorf("publish %s to %s: %v", ev.Kind(), topic, err)
	}
}

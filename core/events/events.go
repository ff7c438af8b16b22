package events

import (
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
)

// Event is implemented by every coordinator event. Topics lists the private
// and global topics the event must be delivered on.
type Event interface {
	Kind() string
	Topics() []eventbus.Topic
}

// LedgerChanged carries a holder's counters after a reservation, release or
// capacity change.
type LedgerChanged struct {
	HolderID string         `json:"holderId"`
	Counters model.Counters `json:"counters"`
}

func (LedgerChanged) Kind() string { return "ledger-changed" }

func (e LedgerChanged) Topics() []eventbus.Topic {
	return []eventbus.Topic{eventbus.HolderTopic(e.HolderID), eventbus.TopicGlobal}
}

// DispatchCreated is published when a reservation succeeds.
type DispatchCreated struct {
	DispatchID      string    `json:"dispatchId"`
	RequestID       string    `json:"requestId"`
	RequesterID     string    `json:"requesterId"`
	HolderID        string    `json:"holderId"`
	Severity        string    `json:"severity"`
	EstimatedReturn time.Time `json:"estimatedReturn"`
}

func (DispatchCreated) Kind() string { return "dispatch-created" }

func (e DispatchCreated) Topics() []eventbus.Topic {
	return []eventbus.Topic{
		eventbus.HolderTopic(e.HolderID),
		eventbus.RequesterTopic(e.RequesterID),
		eventbus.TopicGlobal,
	}
}

// DispatchCompleted is published after a dispatch returned, by timer or
// explicit signal, and its resources were released.
type DispatchCompleted struct {
	DispatchID string `json:"dispatchId"`
	HolderID   string `json:"holderId"`
}

func (DispatchCompleted) Kind() string { return "dispatch-completed" }

func (e DispatchCompleted) Topics() []eventbus.Topic {
	return []eventbus.Topic{eventbus.HolderTopic(e.HolderID), eventbus.TopicGlobal}
}

// QueueChanged carries the full ordered queue snapshot of one holder.
type QueueChanged struct {
	HolderID string             `json:"holderId"`
	Queue    []model.QueueEntry `json:"queue"`
}

func (QueueChanged) Kind() string { return "queue-changed" }

func (e QueueChanged) Topics() []eventbus.Topic {
	return []eventbus.Topic{eventbus.HolderTopic(e.HolderID), eventbus.TopicGlobal}
}

// EmergencyRejected is published when a pending request is rejected.
type EmergencyRejected struct {
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
}

func (EmergencyRejected) Kind() string { return "emergency-rejected" }

func (e EmergencyRejected) Topics() []eventbus.Topic {
	return []eventbus.Topic{eventbus.RequesterTopic(e.RequesterID), eventbus.TopicGlobal}
}

// TransitUpdate is a cosmetic position sample for an active dispatch.
type TransitUpdate struct {
	DispatchID  string  `json:"dispatchId"`
	RequestID   string  `json:"requestId"`
	RequesterID string  `json:"requesterId"`
	HolderID    string  `json:"holderId"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Progress    int     `json:"progress"`
}

func (TransitUpdate) Kind() string { return "transit-update" }

func (e TransitUpdate) Topics() []eventbus.Topic {
	return []eventbus.Topic{
		eventbus.HolderTopic(e.HolderID),
		eventbus.RequesterTopic(e.RequesterID),
		eventbus.TopicGlobal,
	}
}

// DispatchArrived is published when the transit feed reaches its destination.
type DispatchArrived struct {
	DispatchID  string `json:"dispatchId"`
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
	HolderID    string `json:"holderId"`
}

func (DispatchArrived) Kind() string { return "dispatch-arrived" }

func (e DispatchArrived) Topics() []eventbus.Topic {
	return []eventbus.Topic{
		eventbus.HolderTopic(e.HolderID),
		eventbus.RequesterTopic(e.RequesterID),
		eventbus.TopicGlobal,
	}
}

// Publish delivers each event on every topic it declares.
func Publish(bus *eventbus.Bus, evs ...Event) {
	if bus == nil {
		return
	}
	for _, ev := range evs {
		for _, t := range ev.Topics() {
			bus.Publish(t, ev)
		}
	}
}

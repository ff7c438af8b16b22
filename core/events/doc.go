// Package events defines the state-transition events emitted on the event bus
// and delivered to topic-scoped subscribers.
//
// Available event types:
//   - LedgerChanged: a holder's live counters after any reservation or release
//   - DispatchCreated: a reservation succeeded and an ambulance is en route
//   - DispatchCompleted: a dispatch returned and its resources were released
//   - QueueChanged: full snapshot of a holder's waiting queue
//   - EmergencyRejected: a pending request was rejected
//   - TransitUpdate / DispatchArrived: cosmetic position feed for a dispatch
//
// Every payload is a full state replacement, so duplicate or reordered
// delivery across topics is harmless to consumers.
package events

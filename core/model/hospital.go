package model

import "time"

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DispatchStatus is the lifecycle state of a dispatch.
type DispatchStatus string

const (
	DispatchActive    DispatchStatus = "dispatched"
	DispatchCompleted DispatchStatus = "completed"
)

// Dispatch is an active, resource-backed assignment belonging to one
// hospital. Requirements holds the frozen set reserved at accept time and is
// what gets released on completion.
type Dispatch struct {
	ID              string         `json:"id"`
	RequestID       string         `json:"requestId"`
	Severity        string         `json:"severity"`
	Requirements    RequirementSet `json:"requirements"`
	DispatchedAt    time.Time      `json:"dispatchedAt"`
	EstimatedReturn time.Time      `json:"estimatedReturn"`
	Status          DispatchStatus `json:"status"`
}

// QueueEntry is a request waiting because reservation failed. Requirements is
// frozen at enqueue time.
type QueueEntry struct {
	RequestID    string         `json:"requestId"`
	Severity     string         `json:"severity"`
	Requirements RequirementSet `json:"requirements"`
	JoinedAt     time.Time      `json:"joinedAt"`
}

// Hospital is a resource holder: four capacity pools, the dispatches backed
// by them, and the priority queue of requests waiting for them. All mutation
// goes through the ledger's per-holder serialization; Frozen is set when an
// invariant violation is detected and blocks further mutation until a manual
// audit clears it.
type Hospital struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Location   Location     `json:"location"`
	Counters   Counters     `json:"counters"`
	Dispatches []Dispatch   `json:"dispatches"`
	Queue      []QueueEntry `json:"queue"`
	Frozen     bool         `json:"frozen"`
}

// FindDispatch returns a pointer into Dispatches for the given id, or nil.
func (h *Hospital) FindDispatch(id string) *Dispatch {
	for i := range h.Dispatches {
		if h.Dispatches[i].ID == id {
			return &h.Dispatches[i]
		}
	}
	return nil
}

// QueueIndex returns the index of the queue entry for requestID, or -1.
func (h *Hospital) QueueIndex(requestID string) int {
	for i, e := range h.Queue {
		if e.RequestID == requestID {
			return i
		}
	}
	return -1
}

// QueueSnapshot returns a copy of the queue for publication.
func (h *Hospital) QueueSnapshot() []QueueEntry {
	return append([]QueueEntry(nil), h.Queue...)
}

package allocation

import (
	"sort"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

// sortQueue orders entries by severity rank descending, then join time
// ascending. The sort is stable so identical inputs always produce the same
// order.
func sortQueue(q []model.QueueEntry) {
	sort.SliceStable(q, func(i, j int) bool {
		ri, rj := model.LabelRank(q[i].Severity), model.LabelRank(q[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return q[i].JoinedAt.Before(q[j].JoinedAt)
	})
}

// drainLocked serves queue entries from the head while reservations succeed.
// The walk stops at the first entry that cannot be served: handing the
// remaining resources to a lower-priority entry could starve the head when
// its missing resource frees later. Head-of-line blocking is the admission
// policy, not an accident.
//
// Callers must hold the holder lock.
func (e *Engine) drainLocked(h *model.Hospital) []model.Dispatch {
	sortQueue(h.Queue)
	var served []model.Dispatch
	for len(h.Queue) > 0 {
		entry := h.Queue[0]
		if !h.Counters.CanReserve(entry.Requirements) {
			break
		}
		h.Counters.Reserve(entry.Requirements)
		d := e.newDispatch(entry.RequestID, entry.Severity, entry.Requirements)
		h.Dispatches = append(h.Dispatches, d)
		h.Queue = append(h.Queue[:0], h.Queue[1:]...)
		served = append(served, d)
	}
	return served
}

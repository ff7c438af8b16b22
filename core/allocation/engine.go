// Package allocation decides, for each emergency request, whether resources
// can be reserved now, later (queued) or never (rejected). It owns the
// per-holder priority queue and its admission policy.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/events"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/internal/eventbus"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/metrics"
)

// Outcome is the result of an admission attempt.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeQueued     Outcome = "queued"
)

// ErrInsufficient is returned by ForceAssign when the entry's frozen
// requirement set cannot be reserved. Regular submissions never return it;
// they queue instead.
var ErrInsufficient = errors.New("insufficient resources")

// TransitStarter launches the cosmetic position feed for a new dispatch.
// Implementations must not touch resource state.
type TransitStarter interface {
	StartTransit(d model.Dispatch, req *model.EmergencyRequest, dest model.Location)
}

// Engine coordinates reservations, queueing and completion against the
// ledger. All counter, queue and dispatch mutation happens inside the
// ledger's per-holder critical section; events and metrics are emitted after
// the lock is released.
type Engine struct {
	ledger  *ledger.Ledger
	store   storage.Store
	bus     *eventbus.Bus
	sink    metrics.Sink
	log     logger.Logger
	transit TransitStarter

	cfg Config

	// now and returnDelay are swappable for tests.
	now         func() time.Time
	returnDelay func() time.Duration

	randMu sync.Mutex
	rnd    *rand.Rand
}

// New creates an allocation engine. bus and sink may be nil.
func New(led *ledger.Ledger, store storage.Store, bus *eventbus.Bus, sink metrics.Sink, log logger.Logger, cfg Config) (*Engine, error) {
	if led == nil || store == nil || log == nil {
		return nil, fmt.Errorf("allocation: nil parameter provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	e := &Engine{
		ledger: led,
		store:  store,
		bus:    bus,
		sink:   sink,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.returnDelay = e.randomReturnDelay
	return e, nil
}

// SetTransitFeed configures the cosmetic transit feed started for each new
// dispatch.
func (e *Engine) SetTransitFeed(t TransitStarter) {
	e.transit = t
}

func (e *Engine) randomReturnDelay() time.Duration {
	span := e.cfg.MaxReturn - e.cfg.MinReturn
	if span <= 0 {
		return e.cfg.MinReturn
	}
	e.randMu.Lock()
	d := time.Duration(e.rnd.Int63n(int64(span) + 1))
	e.randMu.Unlock()
	return e.cfg.MinReturn + d
}

func (e *Engine) newDispatch(requestID, severity string, req model.RequirementSet) model.Dispatch {
	now := e.now()
	return model.Dispatch{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		Severity:        severity,
		Requirements:    req,
		DispatchedAt:    now,
		EstimatedReturn: now.Add(e.returnDelay()),
		Status:          model.DispatchActive,
	}
}

// Submit validates and persists the request, appends it to the holder's
// queue with its requirement set frozen, and redrains the queue under the
// same critical section. With an empty queue and free resources this is an
// immediate reservation; with a blocked higher-priority entry ahead, the new
// request stays queued even if its own resources are free, per the
// head-of-line policy.
func (e *Engine) Submit(ctx context.Context, req *model.EmergencyRequest) (Outcome, error) {
	if req == nil {
		return "", &model.ValidationError{Field: "request", Reason: "nil"}
	}
	if !req.Severity.Valid() {
		return "", &model.ValidationError{Field: "severity", Reason: fmt.Sprintf("%d outside 1-5", req.Severity)}
	}
	if req.RequesterID == "" {
		return "", &model.ValidationError{Field: "requesterId", Reason: "empty"}
	}
	if req.HolderID == "" {
		return "", &model.ValidationError{Field: "holderId", Reason: "empty"}
	}
	// Check the holder before persisting so an unknown-holder submit leaves
	// no orphan pending record behind.
	if !e.ledger.Has(req.HolderID) {
		return "", &model.NotFoundError{Kind: "holder", ID: req.HolderID}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = e.now()
	}
	if req.Requirements.IsZero() {
		req.Requirements = model.DeriveRequirements(req.Severity)
	}
	req.Status = model.RequestPending
	if err := e.store.SaveEmergency(ctx, req); err != nil {
		return "", fmt.Errorf("persist request: %w", err)
	}

	var (
		served    []model.Dispatch
		counters  model.Counters
		queueSnap []model.QueueEntry
		holderLoc model.Location
	)
	err := e.ledger.WithHolder(ctx, req.HolderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		h.Queue = append(h.Queue, model.QueueEntry{
			RequestID:    req.ID,
			Severity:     req.Severity.Label(),
			Requirements: req.Requirements,
			JoinedAt:     e.now(),
		})
		served = e.drainLocked(h)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return "", err
	}

	outcome := OutcomeQueued
	for _, d := range served {
		if d.RequestID == req.ID {
			outcome = OutcomeDispatched
		}
	}
	submissionsTotal.WithLabelValues(string(outcome)).Inc()
	e.finishDrain(ctx, req.HolderID, holderLoc, served, counters, queueSnap)
	if outcome == OutcomeQueued {
		if len(served) == 0 {
			events.Publish(e.bus, events.QueueChanged{HolderID: req.HolderID, Queue: queueSnap})
			e.recordQueueDepth(req.HolderID, len(queueSnap))
		}
		e.recordAllocation(req.HolderID, req.ID, req.Severity.Label(), string(outcome))
		e.log.Infof("request %s queued at holder %s (depth %d)", req.ID, req.HolderID, len(queueSnap))
	} else {
		e.log.Infof("request %s dispatched at holder %s", req.ID, req.HolderID)
	}
	return outcome, nil
}

// Reject marks a pending request rejected and removes any queue entry for it
// so it cannot be assigned later. The decision is made under the holder lock:
// a request a concurrent drain already promoted to a dispatch stays accepted
// and the rejection becomes a no-op. Rejecting a non-pending request is an
// idempotent no-op that returns the current terminal status.
func (e *Engine) Reject(ctx context.Context, requestID string) (model.RequestStatus, error) {
	req, err := e.store.GetEmergency(ctx, requestID)
	if err != nil {
		return "", err
	}
	if req.Status != model.RequestPending {
		return req.Status, nil
	}

	// The status read above races with drains. Re-check under the holder
	// lock: a dispatch for the request means it was promoted after the read,
	// and the promotion wins. Removing the queue entry here guarantees no
	// later drain can serve a request once it is rejected.
	var (
		removed   bool
		promoted  bool
		queueSnap []model.QueueEntry
	)
	if req.HolderID != "" {
		err := e.ledger.WithHolder(ctx, req.HolderID, func(h *model.Hospital) error {
			for i := range h.Dispatches {
				if h.Dispatches[i].RequestID == requestID {
					promoted = true
					return ledger.ErrUnchanged
				}
			}
			idx := h.QueueIndex(requestID)
			if idx < 0 {
				return ledger.ErrUnchanged
			}
			h.Queue = append(h.Queue[:idx], h.Queue[idx+1:]...)
			removed = true
			queueSnap = h.QueueSnapshot()
			return nil
		})
		if err != nil {
			var nf *model.NotFoundError
			if !errors.As(err, &nf) {
				return "", err
			}
		}
	}
	if promoted {
		return model.RequestAccepted, nil
	}

	req.Status = model.RequestRejected
	if err := e.store.SaveEmergency(ctx, req); err != nil {
		return "", fmt.Errorf("persist rejected request: %w", err)
	}
	events.Publish(e.bus, events.EmergencyRejected{RequestID: req.ID, RequesterID: req.RequesterID})
	if removed {
		events.Publish(e.bus, events.QueueChanged{HolderID: req.HolderID, Queue: queueSnap})
		e.recordQueueDepth(req.HolderID, len(queueSnap))
	}
	e.log.Infof("request %s rejected", requestID)
	return model.RequestRejected, nil
}

// Drain attempts to serve the holder's waiting queue in priority order. It is
// invoked after every release and after any capacity increase.
func (e *Engine) Drain(ctx context.Context, holderID string) error {
	var (
		served    []model.Dispatch
		counters  model.Counters
		queueSnap []model.QueueEntry
		holderLoc model.Location
	)
	err := e.ledger.WithHolder(ctx, holderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		served = e.drainLocked(h)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return err
	}
	e.finishDrain(ctx, holderID, holderLoc, served, counters, queueSnap)
	return nil
}

// finishDrain publishes the results of a drain after the holder lock has
// been released.
func (e *Engine) finishDrain(ctx context.Context, holderID string, holderLoc model.Location, served []model.Dispatch, counters model.Counters, queueSnap []model.QueueEntry) {
	if len(served) == 0 {
		return
	}
	queueServed.Add(float64(len(served)))
	events.Publish(e.bus, events.LedgerChanged{HolderID: holderID, Counters: counters})
	events.Publish(e.bus, events.QueueChanged{HolderID: holderID, Queue: queueSnap})
	e.recordQueueDepth(holderID, len(queueSnap))
	for _, d := range served {
		req, err := e.store.GetEmergency(ctx, d.RequestID)
		if err != nil {
			e.log.Errorf("dispatch %s: load request %s: %v", d.ID, d.RequestID, err)
			continue
		}
		if req.Status == model.RequestPending {
			req.Status = model.RequestAccepted
			if err := e.store.SaveEmergency(ctx, req); err != nil {
				e.log.Errorf("persist accepted request %s: %v", req.ID, err)
			}
		}
		e.announceDispatch(holderID, holderLoc, d, req)
		e.recordAllocation(holderID, d.RequestID, d.Severity, string(OutcomeDispatched))
	}
}

// announceDispatch publishes the dispatch-created event and starts the
// transit feed.
func (e *Engine) announceDispatch(holderID string, holderLoc model.Location, d model.Dispatch, req *model.EmergencyRequest) {
	events.Publish(e.bus, events.DispatchCreated{
		DispatchID:      d.ID,
		RequestID:       d.RequestID,
		RequesterID:     req.RequesterID,
		HolderID:        holderID,
		Severity:        d.Severity,
		EstimatedReturn: d.EstimatedReturn,
	})
	if e.transit != nil {
		e.transit.StartTransit(d, req, holderLoc)
	}
}

// ForceAssign promotes one named queue entry, bypassing priority order. The
// reservation still uses the entry's frozen requirement set; if it cannot be
// satisfied, ErrInsufficient is returned. Operators accept that this can
// break strict priority order.
func (e *Engine) ForceAssign(ctx context.Context, holderID, requestID string) (Outcome, error) {
	var (
		created   model.Dispatch
		counters  model.Counters
		queueSnap []model.QueueEntry
		holderLoc model.Location
	)
	err := e.ledger.WithHolder(ctx, holderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		idx := h.QueueIndex(requestID)
		if idx < 0 {
			return &model.NotFoundError{Kind: "queue entry", ID: requestID}
		}
		entry := h.Queue[idx]
		if !h.Counters.CanReserve(entry.Requirements) {
			return ErrInsufficient
		}
		h.Counters.Reserve(entry.Requirements)
		created = e.newDispatch(entry.RequestID, entry.Severity, entry.Requirements)
		h.Dispatches = append(h.Dispatches, created)
		h.Queue = append(h.Queue[:idx], h.Queue[idx+1:]...)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return "", err
	}

	req, gerr := e.store.GetEmergency(ctx, requestID)
	if gerr != nil {
		e.log.Errorf("force-assign %s: load request: %v", requestID, gerr)
		req = &model.EmergencyRequest{ID: requestID}
	} else if req.Status == model.RequestPending {
		req.Status = model.RequestAccepted
		if err := e.store.SaveEmergency(ctx, req); err != nil {
			e.log.Errorf("persist accepted request %s: %v", req.ID, err)
		}
	}
	events.Publish(e.bus, events.LedgerChanged{HolderID: holderID, Counters: counters})
	events.Publish(e.bus, events.QueueChanged{HolderID: holderID, Queue: queueSnap})
	e.recordQueueDepth(holderID, len(queueSnap))
	e.announceDispatch(holderID, holderLoc, created, req)
	e.recordAllocation(holderID, requestID, created.Severity, "force-assigned")
	e.log.Warnf("request %s force-assigned at holder %s, bypassing queue order", requestID, holderID)
	return OutcomeDispatched, nil
}

// CompleteDispatch marks a dispatch returned and releases its resources. The
// release happens at most once: completing an already completed dispatch is a
// no-op, which settles the race between an operator's explicit signal and the
// reconciler sweep. A successful completion drains the queue under the same
// lock.
func (e *Engine) CompleteDispatch(ctx context.Context, holderID, dispatchID string) (model.Counters, error) {
	var (
		completed bool
		counters  model.Counters
		served    []model.Dispatch
		queueSnap []model.QueueEntry
		holderLoc model.Location
	)
	err := e.ledger.WithHolder(ctx, holderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		d := h.FindDispatch(dispatchID)
		if d == nil {
			return &model.NotFoundError{Kind: "dispatch", ID: dispatchID}
		}
		counters = h.Counters
		if d.Status == model.DispatchCompleted {
			return ledger.ErrUnchanged
		}
		d.Status = model.DispatchCompleted
		completed = true
		if clamped := h.Counters.Release(d.Requirements); len(clamped) > 0 {
			return &model.InvariantViolationError{
				HolderID: holderID,
				Detail:   fmt.Sprintf("over-release of %v completing dispatch %s", clamped, dispatchID),
			}
		}
		served = e.drainLocked(h)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return model.Counters{}, err
	}
	if completed {
		events.Publish(e.bus,
			events.DispatchCompleted{DispatchID: dispatchID, HolderID: holderID},
			events.LedgerChanged{HolderID: holderID, Counters: counters},
		)
		e.finishDrain(ctx, holderID, holderLoc, served, counters, queueSnap)
	}
	return counters, nil
}

// CompleteOverdue completes every active dispatch of the holder whose
// estimated return has elapsed, releases their resources and drains the
// queue, all under one critical section. It returns the number of dispatches
// completed. Used by the reconciler sweep.
func (e *Engine) CompleteOverdue(ctx context.Context, holderID string, now time.Time) (int, error) {
	var (
		completedIDs []string
		counters     model.Counters
		served       []model.Dispatch
		queueSnap    []model.QueueEntry
		holderLoc    model.Location
	)
	err := e.ledger.WithHolder(ctx, holderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		for i := range h.Dispatches {
			d := &h.Dispatches[i]
			if d.Status != model.DispatchActive || d.EstimatedReturn.After(now) {
				continue
			}
			d.Status = model.DispatchCompleted
			if clamped := h.Counters.Release(d.Requirements); len(clamped) > 0 {
				return &model.InvariantViolationError{
					HolderID: holderID,
					Detail:   fmt.Sprintf("over-release of %v completing dispatch %s", clamped, d.ID),
				}
			}
			completedIDs = append(completedIDs, d.ID)
		}
		if len(completedIDs) == 0 {
			return ledger.ErrUnchanged
		}
		served = e.drainLocked(h)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(completedIDs) > 0 {
		for _, id := range completedIDs {
			events.Publish(e.bus, events.DispatchCompleted{DispatchID: id, HolderID: holderID})
		}
		events.Publish(e.bus, events.LedgerChanged{HolderID: holderID, Counters: counters})
		e.finishDrain(ctx, holderID, holderLoc, served, counters, queueSnap)
	}
	return len(completedIDs), nil
}

// SetTotals applies an explicit capacity change through the ledger and drains
// the queue, since growing capacity may unblock the queue head. Raw overwrite
// of availability is deliberately not offered.
func (e *Engine) SetTotals(ctx context.Context, holderID string, totals model.Totals) (model.Counters, error) {
	if totals.Beds < 0 || totals.ICU < 0 || totals.Oxygen < 0 || totals.Ambulances < 0 {
		return model.Counters{}, &model.ValidationError{Field: "totals", Reason: "negative capacity"}
	}
	var (
		counters  model.Counters
		served    []model.Dispatch
		queueSnap []model.QueueEntry
		holderLoc model.Location
	)
	err := e.ledger.WithHolder(ctx, holderID, func(h *model.Hospital) error {
		holderLoc = h.Location
		h.Counters.ApplyTotals(totals)
		served = e.drainLocked(h)
		counters = h.Counters
		queueSnap = h.QueueSnapshot()
		return nil
	})
	if err != nil {
		return model.Counters{}, err
	}
	events.Publish(e.bus, events.LedgerChanged{HolderID: holderID, Counters: counters})
	e.finishDrain(ctx, holderID, holderLoc, served, counters, queueSnap)
	return counters, nil
}

// GetRequest returns the persisted request by id.
func (e *Engine) GetRequest(ctx context.Context, requestID string) (*model.EmergencyRequest, error) {
	return e.store.GetEmergency(ctx, requestID)
}

// MarkArrived records that the transit feed reached its destination. Cosmetic
// lifecycle only; resource state is untouched.
func (e *Engine) MarkArrived(ctx context.Context, dispatchID, requestID string) error {
	req, err := e.store.GetEmergency(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != model.RequestAccepted {
		return nil
	}
	req.Status = model.RequestArrived
	if err := e.store.SaveEmergency(ctx, req); err != nil {
		return err
	}
	events.Publish(e.bus, events.DispatchArrived{
		DispatchID:  dispatchID,
		RequestID:   requestID,
		RequesterID: req.RequesterID,
		HolderID:    req.HolderID,
	})
	return nil
}

func (e *Engine) recordAllocation(holderID, requestID, severity, outcome string) {
	rec := metrics.AllocationRecord{
		HolderID:  holderID,
		RequestID: requestID,
		Severity:  severity,
		Outcome:   outcome,
		Timestamp: e.now(),
	}
	if err := e.sink.RecordAllocations([]metrics.AllocationRecord{rec}); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
}

func (e *Engine) recordQueueDepth(holderID string, depth int) {
	queueDepth.WithLabelValues(holderID).Set(float64(depth))
	if err := e.sink.RecordQueueDepth(holderID, depth); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
}

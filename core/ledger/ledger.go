// Package ledger maintains the live capacity counters of every resource
// holder and serializes all mutation per holder. It is the only path through
// which counters change; the allocation engine and the reconciler both run
// their critical sections inside WithHolder.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/logger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
)

// ErrUnchanged can be returned by a WithHolder callback to report that it
// left the record untouched. WithHolder treats it as success and skips the
// write-through.
var ErrUnchanged = errors.New("holder record unchanged")

// Ledger owns the in-memory holder records and writes every mutation through
// to the store before the per-holder lock is released. Different holders
// never block each other.
type Ledger struct {
	store storage.Store
	log   logger.Logger

	mu      sync.RWMutex
	holders map[string]*holderState
}

type holderState struct {
	mu sync.Mutex
	h  *model.Hospital
}

// New creates a Ledger backed by the given store.
func New(store storage.Store, log logger.Logger) *Ledger {
	return &Ledger{
		store:   store,
		log:     log,
		holders: make(map[string]*holderState),
	}
}

// Load populates the ledger from the store.
func (l *Ledger) Load(ctx context.Context) error {
	hospitals, err := l.store.LoadHospitals(ctx)
	if err != nil {
		return fmt.Errorf("load hospitals: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range hospitals {
		l.holders[h.ID] = &holderState{h: h}
	}
	return nil
}

// Register adds a new holder after validating its counters.
func (l *Ledger) Register(ctx context.Context, h *model.Hospital) error {
	if h.ID == "" {
		return &model.ValidationError{Field: "holderId", Reason: "empty"}
	}
	if err := h.Counters.Validate(); err != nil {
		return &model.ValidationError{Field: "counters", Reason: err.Error()}
	}
	if err := l.store.SaveHospital(ctx, h); err != nil {
		return err
	}
	l.mu.Lock()
	l.holders[h.ID] = &holderState{h: h}
	l.mu.Unlock()
	return nil
}

// HolderIDs returns the ids of all registered holders.
func (l *Ledger) HolderIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.holders))
	for id := range l.holders {
		ids = append(ids, id)
	}
	return ids
}

// Has reports whether a holder is registered. Holders are never removed, so
// a positive answer stays valid.
func (l *Ledger) Has(id string) bool {
	_, ok := l.holder(id)
	return ok
}

func (l *Ledger) holder(id string) (*holderState, bool) {
	l.mu.RLock()
	hs, ok := l.holders[id]
	l.mu.RUnlock()
	return hs, ok
}

// WithHolder runs fn with exclusive access to the holder record and persists
// the result before releasing the lock. A frozen ledger rejects all mutation.
// If fn reports an invariant violation the holder is frozen, the mutated
// record is still persisted, and the violation is returned to the caller.
// A callback that returns ErrUnchanged succeeds without a store write.
func (l *Ledger) WithHolder(ctx context.Context, id string, fn func(h *model.Hospital) error) error {
	hs, ok := l.holder(id)
	if !ok {
		return &model.NotFoundError{Kind: "holder", ID: id}
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.h.Frozen {
		return &model.InvariantViolationError{HolderID: id, Detail: "ledger frozen pending audit"}
	}
	if err := fn(hs.h); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		l.freezeOnViolation(ctx, hs, err)
		return err
	}
	if err := hs.h.Counters.Validate(); err != nil {
		viol := &model.InvariantViolationError{HolderID: id, Detail: err.Error()}
		l.freezeOnViolation(ctx, hs, viol)
		return viol
	}
	if err := l.store.SaveHospital(ctx, hs.h); err != nil {
		return fmt.Errorf("persist holder %s: %w", id, err)
	}
	return nil
}

// freezeOnViolation freezes the holder when err carries an invariant
// violation. The record is persisted so the frozen state survives a restart.
func (l *Ledger) freezeOnViolation(ctx context.Context, hs *holderState, err error) {
	var viol *model.InvariantViolationError
	if !errors.As(err, &viol) {
		return
	}
	hs.h.Frozen = true
	l.log.Errorf("FREEZING ledger for holder %s: %s", hs.h.ID, viol.Detail)
	if serr := l.store.SaveHospital(ctx, hs.h); serr != nil {
		l.log.Errorf("persist frozen holder %s: %v", hs.h.ID, serr)
	}
}

// View runs fn with shared access to the holder record. Reads are allowed on
// frozen holders.
func (l *Ledger) View(ctx context.Context, id string, fn func(h *model.Hospital)) error {
	hs, ok := l.holder(id)
	if !ok {
		return &model.NotFoundError{Kind: "holder", ID: id}
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	fn(hs.h)
	return nil
}

// Reserve atomically checks and decrements every pool required by req. It
// returns false without any partial decrement when a required pool is empty.
// A failed reservation leaves the record untouched and writes nothing.
func (l *Ledger) Reserve(ctx context.Context, id string, req model.RequirementSet) (bool, error) {
	ok := false
	err := l.WithHolder(ctx, id, func(h *model.Hospital) error {
		if !h.Counters.CanReserve(req) {
			return ErrUnchanged
		}
		h.Counters.Reserve(req)
		ok = true
		return nil
	})
	return ok, err
}

// Release increments every pool required by req. An increment past the pool
// total indicates an over-release: the counters are clamped, the holder is
// frozen and an InvariantViolationError is returned.
func (l *Ledger) Release(ctx context.Context, id string, req model.RequirementSet) error {
	return l.WithHolder(ctx, id, func(h *model.Hospital) error {
		if clamped := h.Counters.Release(req); len(clamped) > 0 {
			return &model.InvariantViolationError{
				HolderID: id,
				Detail:   fmt.Sprintf("over-release of %v", clamped),
			}
		}
		return nil
	})
}

// Snapshot returns a copy of the holder's counters.
func (l *Ledger) Snapshot(ctx context.Context, id string) (model.Counters, error) {
	var c model.Counters
	err := l.View(ctx, id, func(h *model.Hospital) { c = h.Counters })
	return c, err
}

// Unfreeze clears the frozen flag after a manual audit, provided the
// counters are consistent again.
func (l *Ledger) Unfreeze(ctx context.Context, id string) error {
	hs, ok := l.holder(id)
	if !ok {
		return &model.NotFoundError{Kind: "holder", ID: id}
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if err := hs.h.Counters.Validate(); err != nil {
		return &model.InvariantViolationError{HolderID: id, Detail: err.Error()}
	}
	hs.h.Frozen = false
	l.log.Warnf("ledger for holder %s unfrozen after audit", id)
	return l.store.SaveHospital(ctx, hs.h)
}

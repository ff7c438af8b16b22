package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
)

func newTestLedger(t *testing.T, hospitals ...*model.Hospital) *Ledger {
	t.Helper()
	l := New(storage.NewMemStore(), logger.NopLogger{})
	for _, h := range hospitals {
		if err := l.Register(context.Background(), h); err != nil {
			t.Fatalf("register %s: %v", h.ID, err)
		}
	}
	return l
}

func hospitalWith(id string, beds, icu, oxygen, ambulances int) *model.Hospital {
	return &model.Hospital{
		ID: id,
		Counters: model.Counters{
			Beds:       model.Capacity{Total: beds, Available: beds},
			ICU:        model.Capacity{Total: icu, Available: icu},
			Oxygen:     model.Capacity{Total: oxygen, Available: oxygen},
			Ambulances: model.Capacity{Total: ambulances, Available: ambulances},
		},
	}
}

func TestReserveDecrementsAllRequiredPools(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 2, 1, 1, 2))
	req := model.RequirementSet{Bed: true, Ambulance: true}
	ok, err := l.Reserve(context.Background(), "h1", req)
	if err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	c, _ := l.Snapshot(context.Background(), "h1")
	if c.Beds.Available != 1 || c.Ambulances.Available != 1 {
		t.Fatalf("unexpected counters %+v", c)
	}
	if c.ICU.Available != 1 || c.Oxygen.Available != 1 {
		t.Fatalf("unrelated pools touched %+v", c)
	}
}

func TestReserveNoPartialDecrement(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 1, 0, 0, 1))
	req := model.RequirementSet{ICU: true, Ambulance: true}
	ok, err := l.Reserve(context.Background(), "h1", req)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("reserve succeeded with empty ICU pool")
	}
	c, _ := l.Snapshot(context.Background(), "h1")
	if c.Ambulances.Available != 1 {
		t.Fatalf("ambulance decremented on failed reserve: %+v", c)
	}
}

// countingStore counts write-throughs so tests can assert that no-op
// critical sections skip the store.
type countingStore struct {
	*storage.MemStore
	mu    sync.Mutex
	saves int
}

func (c *countingStore) SaveHospital(ctx context.Context, h *model.Hospital) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.MemStore.SaveHospital(ctx, h)
}

func (c *countingStore) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func TestFailedReserveSkipsWriteThrough(t *testing.T) {
	st := &countingStore{MemStore: storage.NewMemStore()}
	l := New(st, logger.NopLogger{})
	if err := l.Register(context.Background(), hospitalWith("h1", 1, 0, 0, 1)); err != nil {
		t.Fatalf("register: %v", err)
	}
	base := st.saveCount()

	ok, err := l.Reserve(context.Background(), "h1", model.RequirementSet{ICU: true})
	if err != nil || ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if got := st.saveCount(); got != base {
		t.Fatalf("failed reserve persisted an unchanged record: %d writes", got-base)
	}

	// A successful reservation still writes through.
	if ok, err := l.Reserve(context.Background(), "h1", model.RequirementSet{Bed: true}); err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if got := st.saveCount(); got != base+1 {
		t.Fatalf("expected one write-through, got %d", got-base)
	}
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 0, 0, 0, 1))
	req := model.RequirementSet{Ambulance: true}
	const n = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(context.Background(), "h1", req)
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	c, _ := l.Snapshot(context.Background(), "h1")
	if c.Ambulances.Available != 0 {
		t.Fatalf("counter drifted: %+v", c)
	}
}

func TestOverReleaseFreezesHolder(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 1, 0, 0, 1))
	err := l.Release(context.Background(), "h1", model.RequirementSet{Ambulance: true})
	var viol *model.InvariantViolationError
	if !errors.As(err, &viol) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	// Frozen ledger must reject further mutation.
	_, err = l.Reserve(context.Background(), "h1", model.RequirementSet{Bed: true})
	if !errors.As(err, &viol) {
		t.Fatalf("frozen ledger accepted a reserve: %v", err)
	}
	// Reads stay available.
	if _, err := l.Snapshot(context.Background(), "h1"); err != nil {
		t.Fatalf("snapshot on frozen holder: %v", err)
	}
	// A clean audit unfreezes.
	if err := l.Unfreeze(context.Background(), "h1"); err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if ok, err := l.Reserve(context.Background(), "h1", model.RequirementSet{Bed: true}); err != nil || !ok {
		t.Fatalf("reserve after unfreeze: ok=%v err=%v", ok, err)
	}
}

func TestReleaseRestoresReservedUnits(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 1, 1, 1, 1))
	req := model.RequirementSet{ICU: true, Ambulance: true, Oxygen: true}
	if ok, _ := l.Reserve(context.Background(), "h1", req); !ok {
		t.Fatal("reserve failed")
	}
	if err := l.Release(context.Background(), "h1", req); err != nil {
		t.Fatalf("release: %v", err)
	}
	c, _ := l.Snapshot(context.Background(), "h1")
	if c.ICU.Available != 1 || c.Ambulances.Available != 1 || c.Oxygen.Available != 1 {
		t.Fatalf("release did not restore counters: %+v", c)
	}
}

func TestHoldersAreIndependent(t *testing.T) {
	l := newTestLedger(t, hospitalWith("h1", 1, 0, 0, 1), hospitalWith("h2", 1, 0, 0, 1))
	req := model.RequirementSet{Bed: true}
	var wg sync.WaitGroup
	for _, id := range []string{"h1", "h2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if ok, err := l.Reserve(context.Background(), id, req); err != nil || !ok {
				t.Errorf("reserve %s: ok=%v err=%v", id, ok, err)
			}
		}(id)
	}
	wg.Wait()
}

func TestUnknownHolder(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Reserve(context.Background(), "nope", model.RequirementSet{Bed: true})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

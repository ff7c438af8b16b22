// Package reconciler reclaims resources from dispatches whose estimated
// return time has elapsed.
package reconciler

import (
	"context"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/logger"
)

// Completer is the slice of the allocation engine the sweep needs.
type Completer interface {
	CompleteOverdue(ctx context.Context, holderID string, now time.Time) (int, error)
}

// Reconciler periodically sweeps all holders for overdue dispatches,
// completes them and redrains the waiting queues. One holder's failure never
// halts reclamation for the others.
type Reconciler struct {
	engine   Completer
	ledger   *ledger.Ledger
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
}

// New creates a Reconciler. A non-positive interval defaults to one minute.
func New(engine Completer, led *ledger.Ledger, interval time.Duration, log logger.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		engine:   engine,
		ledger:   led,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps at the configured interval until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep visits every holder once. It returns the number of dispatches
// completed across all holders.
func (r *Reconciler) Sweep(ctx context.Context) int {
	now := r.now()
	total := 0
	for _, id := range r.ledger.HolderIDs() {
		n, err := r.engine.CompleteOverdue(ctx, id, now)
		if err != nil {
			r.log.Errorf("sweep: holder %s: %v", id, err)
			continue
		}
		if n > 0 {
			r.log.Infof("sweep: completed %d overdue dispatches for holder %s", n, id)
			total += n
		}
	}
	return total
}

package scenarios

import (
	"context"
	"testing"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/allocation"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
)

const holderID = "scenario-holder"

// RunScenario replays the scenario's steps against a fresh engine and checks
// the final outcome tallies.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx := context.Background()
	store := storage.NewMemStore()
	led := ledger.New(store, logger.NopLogger{})
	if err := led.Register(ctx, &model.Hospital{
		ID:       holderID,
		Name:     sc.Name,
		Counters: sc.Counters.ToModel(),
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	eng, err := allocation.New(led, store, nil, nil, logger.NopLogger{}, allocation.Config{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	var requestIDs []string
	for i, step := range sc.Steps {
		switch {
		case step.Severity != 0:
			req := &model.EmergencyRequest{
				ID:          step.ID,
				RequesterID: "qa",
				HolderID:    holderID,
				Severity:    model.Severity(step.Severity),
			}
			if _, err := eng.Submit(ctx, req); err != nil {
				t.Fatalf("step %d submit: %v", i, err)
			}
			requestIDs = append(requestIDs, req.ID)
		case step.Totals != nil:
			totals := model.Totals{
				Beds:       step.Totals.Beds,
				ICU:        step.Totals.ICU,
				Oxygen:     step.Totals.Oxygen,
				Ambulances: step.Totals.Ambulances,
			}
			if _, err := eng.SetTotals(ctx, holderID, totals); err != nil {
				t.Fatalf("step %d totals: %v", i, err)
			}
		case step.CompleteAll:
			completeAll(ctx, t, led, eng, i)
		case step.Reject != "":
			if _, err := eng.Reject(ctx, step.Reject); err != nil {
				t.Fatalf("step %d reject: %v", i, err)
			}
		default:
			t.Fatalf("step %d has no action", i)
		}
	}

	var got Expected
	for _, id := range requestIDs {
		req, err := eng.GetRequest(ctx, id)
		if err != nil {
			t.Fatalf("load request %s: %v", id, err)
		}
		switch req.Status {
		case model.RequestAccepted, model.RequestArrived:
			got.Dispatched++
		case model.RequestPending:
			got.Queued++
		case model.RequestRejected:
			got.Rejected++
		}
	}
	if got != sc.Expected {
		t.Errorf("scenario %s: expected %+v, got %+v", sc.Name, sc.Expected, got)
	}
}

func completeAll(ctx context.Context, t *testing.T, led *ledger.Ledger, eng *allocation.Engine, step int) {
	var active []string
	err := led.View(ctx, holderID, func(h *model.Hospital) {
		for _, d := range h.Dispatches {
			if d.Status == model.DispatchActive {
				active = append(active, d.ID)
			}
		}
	})
	if err != nil {
		t.Fatalf("step %d view: %v", step, err)
	}
	for _, id := range active {
		if _, err := eng.CompleteDispatch(ctx, holderID, id); err != nil {
			t.Fatalf("step %d complete %s: %v", step, id, err)
		}
	}
}

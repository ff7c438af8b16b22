package emergency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/allocation"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
)

func newTestHandler(t *testing.T, beds, icu, amb int) (*Handler, *allocation.Engine) {
	t.Helper()
	store := storage.NewMemStore()
	led := ledger.New(store, logger.NopLogger{})
	err := led.Register(context.Background(), &model.Hospital{
		ID:   "h1",
		Name: "General",
		Counters: model.Counters{
			Beds:       model.Capacity{Total: beds, Available: beds},
			ICU:        model.Capacity{Total: icu, Available: icu},
			Oxygen:     model.Capacity{Total: 5, Available: 5},
			Ambulances: model.Capacity{Total: amb, Available: amb},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	eng, err := allocation.New(led, store, nil, nil, logger.NopLogger{}, allocation.Config{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewHandler(eng, led, logger.NopLogger{}), eng
}

func doJSON(t *testing.T, h http.Handler, method, path, requester, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if requester != "" {
		req.Header.Set("X-Requester-ID", requester)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSubmitDispatched(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1",
		`{"holderId":"h1","severity":5,"location":{"lat":1,"lng":2}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Outcome != allocation.OutcomeDispatched || out.RequestID == "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.Status != model.RequestAccepted {
		t.Fatalf("status %s", out.Status)
	}
}

func TestSubmitQueuedWhenInsufficient(t *testing.T) {
	h, _ := newTestHandler(t, 5, 0, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1",
		`{"holderId":"h1","severity":5}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Outcome != allocation.OutcomeQueued || out.Status != model.RequestPending {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestSubmitRequiresRequesterHeader(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "",
		`{"holderId":"h1","severity":3}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestSubmitValidation(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	cases := []struct {
		name string
		body string
	}{
		{"severity_out_of_range", `{"holderId":"h1","severity":9}`},
		{"missing_holder", `{"severity":3}`},
		{"bad_json", `{`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1", c.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSubmitUnknownHolderIs404(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1",
		`{"holderId":"nope","severity":3}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRejectAndGetEmergency(t *testing.T) {
	h, _ := newTestHandler(t, 5, 0, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1",
		`{"holderId":"h1","severity":5}`)
	var out submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr = doJSON(t, h.Routes(), "POST", "/api/emergencies/"+out.RequestID+"/reject", "r1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reject status %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h.Routes(), "GET", "/api/emergencies/"+out.RequestID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status %d", rr.Code)
	}
	var got model.EmergencyRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != model.RequestRejected {
		t.Fatalf("status %s", got.Status)
	}
}

func TestGetHolderSnapshot(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1", `{"holderId":"h1","severity":5}`)

	rr := doJSON(t, h.Routes(), "GET", "/api/holders/h1", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var view holderView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Name != "General" || len(view.Dispatches) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Counters.ICU.Available != 1 {
		t.Fatalf("icu availability %d", view.Counters.ICU.Available)
	}

	rr = doJSON(t, h.Routes(), "GET", "/api/holders/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestSetTotalsUnblocksQueue(t *testing.T) {
	h, _ := newTestHandler(t, 5, 0, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1", `{"holderId":"h1","severity":5}`)
	var out submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Outcome != allocation.OutcomeQueued {
		t.Fatalf("outcome %s", out.Outcome)
	}

	rr = doJSON(t, h.Routes(), "PUT", "/api/holders/h1/totals", "",
		`{"beds":5,"icu":1,"oxygen":5,"ambulances":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("totals status %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h.Routes(), "GET", "/api/emergencies/"+out.RequestID, "", "")
	var got model.EmergencyRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != model.RequestAccepted {
		t.Fatalf("status %s after capacity increase", got.Status)
	}
}

func TestSetTotalsRejectsNegative(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	rr := doJSON(t, h.Routes(), "PUT", "/api/holders/h1/totals", "",
		`{"beds":-1,"icu":1,"oxygen":5,"ambulances":3}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestForceAssign(t *testing.T) {
	h, _ := newTestHandler(t, 0, 0, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1", `{"holderId":"h1","severity":5}`)
	var out submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Still no ICU or bed: frozen requirements cannot be met.
	rr = doJSON(t, h.Routes(), "POST", "/api/holders/h1/force-assign", "",
		`{"requestId":"`+out.RequestID+`"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}

	doJSON(t, h.Routes(), "PUT", "/api/holders/h1/totals", "",
		`{"beds":1,"icu":1,"oxygen":5,"ambulances":3}`)

	rr = doJSON(t, h.Routes(), "GET", "/api/emergencies/"+out.RequestID, "", "")
	var got model.EmergencyRequest
	_ = json.Unmarshal(rr.Body.Bytes(), &got)
	if got.Status == model.RequestPending {
		// Raising capacity drained the queue; force-assign of a now missing
		// entry is a 404.
		t.Fatalf("expected drain after capacity increase")
	}

	rr = doJSON(t, h.Routes(), "POST", "/api/holders/h1/force-assign", "",
		`{"requestId":"`+out.RequestID+`"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCompleteDispatchReleasesResources(t *testing.T) {
	h, _ := newTestHandler(t, 5, 2, 3)
	rr := doJSON(t, h.Routes(), "POST", "/api/emergencies", "r1", `{"holderId":"h1","severity":5}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("submit status %d", rr.Code)
	}

	rr = doJSON(t, h.Routes(), "GET", "/api/holders/h1", "", "")
	var view holderView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	dispatchID := view.Dispatches[0].ID

	rr = doJSON(t, h.Routes(), "POST", "/api/holders/h1/dispatches/"+dispatchID+"/complete", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("complete status %d: %s", rr.Code, rr.Body.String())
	}
	var counters model.Counters
	if err := json.Unmarshal(rr.Body.Bytes(), &counters); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counters.ICU.Available != 2 || counters.Ambulances.Available != 3 {
		t.Fatalf("counters after completion %+v", counters)
	}

	// Idempotent: a second completion does not release again.
	rr = doJSON(t, h.Routes(), "POST", "/api/holders/h1/dispatches/"+dispatchID+"/complete", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("second complete status %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &counters); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if counters.ICU.Available != 2 {
		t.Fatalf("double release: %+v", counters)
	}
}

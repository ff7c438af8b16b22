// Package emergency exposes the coordinator's HTTP surface: submitting and
// rejecting emergency requests, completing dispatches, operator overrides and
// holder snapshots.
package emergency

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/allocation"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/ledger"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/infra/logger"
)

// requesterHeader identifies the caller; it stands in for authenticated
// identity.
const requesterHeader = "X-Requester-ID"

// Handler serves the coordinator API.
type Handler struct {
	engine *allocation.Engine
	ledger *ledger.Ledger
	log    logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(engine *allocation.Engine, led *ledger.Ledger, log logger.Logger) *Handler {
	return &Handler{engine: engine, ledger: led, log: log}
}

// Routes returns the API mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/emergencies", h.submit)
	mux.HandleFunc("GET /api/emergencies/{id}", h.getEmergency)
	mux.HandleFunc("POST /api/emergencies/{id}/reject", h.reject)
	mux.HandleFunc("GET /api/holders/{id}", h.getHolder)
	mux.HandleFunc("PUT /api/holders/{id}/totals", h.setTotals)
	mux.HandleFunc("POST /api/holders/{id}/force-assign", h.forceAssign)
	mux.HandleFunc("POST /api/holders/{id}/dispatches/{dispatchId}/complete", h.completeDispatch)
	return mux
}

type submitRequest struct {
	HolderID     string                `json:"holderId"`
	Severity     model.Severity        `json:"severity"`
	Location     model.Location        `json:"location"`
	Requirements *model.RequirementSet `json:"requirements,omitempty"`
}

type submitResponse struct {
	RequestID string              `json:"requestId"`
	Outcome   allocation.Outcome  `json:"outcome"`
	Status    model.RequestStatus `json:"status"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	requester := r.Header.Get(requesterHeader)
	if requester == "" {
		writeError(w, &model.ValidationError{Field: requesterHeader, Reason: "missing header"})
		return
	}
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	req := &model.EmergencyRequest{
		RequesterID: requester,
		HolderID:    body.HolderID,
		Severity:    body.Severity,
		Location:    body.Location,
	}
	if body.Requirements != nil {
		req.Requirements = *body.Requirements
	}
	outcome, err := h.engine.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	status := model.RequestPending
	if outcome == allocation.OutcomeDispatched {
		status = model.RequestAccepted
	}
	writeJSON(w, http.StatusCreated, submitResponse{RequestID: req.ID, Outcome: outcome, Status: status})
}

func (h *Handler) getEmergency(w http.ResponseWriter, r *http.Request) {
	req, err := h.engine.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requestId": r.PathValue("id"), "status": status})
}

// holderView is the read model returned for a holder.
type holderView struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Location   model.Location     `json:"location"`
	Counters   model.Counters     `json:"counters"`
	Queue      []model.QueueEntry `json:"queue"`
	Dispatches []model.Dispatch   `json:"dispatches"`
	Frozen     bool               `json:"frozen"`
}

func (h *Handler) getHolder(w http.ResponseWriter, r *http.Request) {
	var view holderView
	err := h.ledger.View(r.Context(), r.PathValue("id"), func(hosp *model.Hospital) {
		view = holderView{
			ID:         hosp.ID,
			Name:       hosp.Name,
			Location:   hosp.Location,
			Counters:   hosp.Counters,
			Queue:      hosp.QueueSnapshot(),
			Dispatches: append([]model.Dispatch(nil), hosp.Dispatches...),
			Frozen:     hosp.Frozen,
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) setTotals(w http.ResponseWriter, r *http.Request) {
	var totals model.Totals
	if err := json.NewDecoder(r.Body).Decode(&totals); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	counters, err := h.engine.SetTotals(r.Context(), r.PathValue("id"), totals)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

type forceAssignRequest struct {
	RequestID string `json:"requestId"`
}

func (h *Handler) forceAssign(w http.ResponseWriter, r *http.Request) {
	var body forceAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	if body.RequestID == "" {
		writeError(w, &model.ValidationError{Field: "requestId", Reason: "empty"})
		return
	}
	outcome, err := h.engine.ForceAssign(r.Context(), r.PathValue("id"), body.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requestId": body.RequestID, "outcome": outcome})
}

func (h *Handler) completeDispatch(w http.ResponseWriter, r *http.Request) {
	counters, err := h.engine.CompleteDispatch(r.Context(), r.PathValue("id"), r.PathValue("dispatchId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counters)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. An invariant
// violation surfaces as 409 so callers see the frozen ledger rather than a
// generic failure.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *model.ValidationError
		nerr *model.NotFoundError
		ierr *model.InvariantViolationError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &nerr):
		status = http.StatusNotFound
	case errors.Is(err, allocation.ErrInsufficient), errors.As(err, &ierr):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

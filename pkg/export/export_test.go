package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

func sampleDispatches() []model.Dispatch {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.Dispatch{
		{
			ID:              "d1",
			RequestID:       "e1",
			Severity:        model.LabelCritical,
			DispatchedAt:    at,
			EstimatedReturn: at.Add(15 * time.Minute),
			Status:          model.DispatchCompleted,
		},
		{
			ID:           "d2",
			RequestID:    "e2",
			Severity:     model.LabelLow,
			DispatchedAt: at.Add(time.Minute),
			Status:       model.DispatchActive,
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleDispatches()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []model.Dispatch
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "d1" || out[1].Status != model.DispatchActive {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleDispatches()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "dispatch_id,request_id,severity") {
		t.Fatalf("header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Critical") || !strings.Contains(lines[2], "dispatched") {
		t.Fatalf("rows %v", lines[1:])
	}
}

// Package export serializes a holder's dispatch history for offline review.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
)

// WriteJSON writes the dispatch history to w in JSON format.
func WriteJSON(w io.Writer, dispatches []model.Dispatch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dispatches)
}

// WriteCSV writes the dispatch history to w in CSV format.
func WriteCSV(w io.Writer, dispatches []model.Dispatch) error {
	cw := csv.NewWriter(w)
	header := []string{"dispatch_id", "request_id", "severity", "dispatched_at", "estimated_return", "status"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range dispatches {
		rec := []string{
			d.ID,
			d.RequestID,
			d.Severity,
			d.DispatchedAt.Format(time.RFC3339),
			d.EstimatedReturn.Format(time.RFC3339),
			string(d.Status),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

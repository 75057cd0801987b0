package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nomis52/golaunch/server/history"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// readJSON decodes the request body into v. An empty body leaves v
// unchanged.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// lookupRecord finds an activity among the live ones, then in history.
func lookupRecord(live ActivitySource, hist HistoryProvider, id string) (history.Record, bool) {
	if h, ok := live.Get(id); ok {
		return history.FromSnapshot(h.Snapshot()), true
	}
	if rec, ok := hist.Get(id); ok {
		return rec, true
	}
	// The instance may have moved to history between the two lookups.
	if h, ok := live.Get(id); ok {
		return history.FromSnapshot(h.Snapshot()), true
	}
	return history.Record{}, false
}

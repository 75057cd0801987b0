package handlers

import (
	"net/http"

	"github.com/nomis52/golaunch/logging"
)

// LogsResponse is the JSON response for GET /activities/{id}/logs.
type LogsResponse struct {
	ID      string             `json:"id"`
	Entries []logging.LogEntry `json:"entries"`
	// Dropped counts entries discarded to respect the per-activity bound.
	Dropped int `json:"dropped,omitempty"`
}

// LogsHandler returns the log records captured for an activity, including
// the module's console output.
type LogsHandler struct {
	logs    LogProvider
	live    ActivitySource
	history HistoryProvider
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(logs LogProvider, live ActivitySource, hist HistoryProvider) *LogsHandler {
	return &LogsHandler{logs: logs, live: live, history: hist}
}

// ServeHTTP implements http.Handler.
func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := lookupRecord(h.live, h.history, id); !ok {
		writeError(w, http.StatusNotFound, "unknown activity "+id)
		return
	}

	entries := h.logs.GetLogs(id)
	if entries == nil {
		entries = []logging.LogEntry{}
	}
	writeJSON(w, http.StatusOK, LogsResponse{
		ID:      id,
		Entries: entries,
		Dropped: h.logs.Dropped(id),
	})
}

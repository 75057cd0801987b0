package handlers

import (
	"net/http"

	"github.com/nomis52/golaunch/server/history"
)

// ActivitiesResponse is the JSON response for GET /activities.
type ActivitiesResponse struct {
	// Live activities, oldest first.
	Live []history.Record `json:"live"`
	// History holds ended activities, newest first.
	History []history.Record `json:"history"`
}

// ActivitiesHandler lists live and ended activities.
type ActivitiesHandler struct {
	live    ActivitySource
	history HistoryProvider
}

// NewActivitiesHandler creates a new ActivitiesHandler.
func NewActivitiesHandler(live ActivitySource, hist HistoryProvider) *ActivitiesHandler {
	return &ActivitiesHandler{live: live, history: hist}
}

// ServeHTTP implements http.Handler.
func (h *ActivitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshots := h.live.Live()
	live := make([]history.Record, len(snapshots))
	for i, s := range snapshots {
		live[i] = history.FromSnapshot(s)
	}

	writeJSON(w, http.StatusOK, ActivitiesResponse{
		Live:    live,
		History: h.history.Records(),
	})
}

// ActivityHandler returns one activity, live or ended.
type ActivityHandler struct {
	live    ActivitySource
	history HistoryProvider
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(live ActivitySource, hist HistoryProvider) *ActivityHandler {
	return &ActivityHandler{live: live, history: hist}
}

// ServeHTTP implements http.Handler.
func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := lookupRecord(h.live, h.history, id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown activity "+id)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

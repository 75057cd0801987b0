package handlers

import (
	"log/slog"
	"net/http"
)

const defaultCancelReason = "cancelled over http"

// CancelRequest is the body of POST /activities/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelHandler requests cancellation of a live activity.
type CancelHandler struct {
	logger  *slog.Logger
	live    ActivitySource
	history HistoryProvider
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(logger *slog.Logger, live ActivitySource, hist HistoryProvider) *CancelHandler {
	return &CancelHandler{logger: logger, live: live, history: hist}
}

// ServeHTTP implements http.Handler. Cancellation is asynchronous: 202 means
// it was requested, not that it won.
func (h *CancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req CancelRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = defaultCancelReason
	}

	handle, ok := h.live.Get(id)
	if !ok {
		if rec, ended := h.history.Get(id); ended {
			writeError(w, http.StatusConflict, "activity already "+rec.State.String())
			return
		}
		writeError(w, http.StatusNotFound, "unknown activity "+id)
		return
	}

	handle.Cancel(req.Reason)
	h.logger.Info("activity cancel requested over http", "activity_id", id, "reason", req.Reason)
	w.WriteHeader(http.StatusAccepted)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/intent"
	"github.com/nomis52/golaunch/launcher"
)

// StartRequest is the body of POST /intents/{name}/start. Every field is
// optional.
type StartRequest struct {
	Params    activity.Params `json:"params"`
	Container string          `json:"container"`
	// Timeout is a Go duration string such as "30s".
	Timeout string `json:"timeout"`
}

// StartResponse is returned once an activity was launched.
type StartResponse struct {
	ID string `json:"id"`
}

// StartHandler launches an activity for an intent.
type StartHandler struct {
	logger  *slog.Logger
	starter IntentStarter
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(logger *slog.Logger, starter IntentStarter) *StartHandler {
	return &StartHandler{logger: logger, starter: starter}
}

// ServeHTTP implements http.Handler. It responds as soon as the activity
// exists; its outcome is read from /activities/{id}.
func (h *StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req StartRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var timeout time.Duration
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "timeout must be a positive duration")
			return
		}
		timeout = d
	}

	var opts []activity.StartOption
	if req.Container != "" {
		opts = append(opts, activity.WithContainer(req.Container))
	}

	handle, err := h.starter.IntentStart(name, req.Params, opts...)
	switch {
	case errors.Is(err, intent.ErrNotRegistered):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to start activity", "intent", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if timeout > 0 {
		launcher.CancelAfter(handle, timeout)
	}
	h.logger.Info("activity started over http", "intent", name, "activity_id", handle.ID())
	writeJSON(w, http.StatusAccepted, StartResponse{ID: handle.ID()})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/golaunch/server/cron"
	"github.com/nomis52/golaunch/server/types"
)

// StatusResponse is the consolidated response for GET /status.
type StatusResponse struct {
	Server    types.ServerProperties `json:"server"`
	Uptime    string                 `json:"uptime"`
	Intents   int                    `json:"intents"`
	Live      int                    `json:"live"`
	Schedules []cron.NextRun         `json:"schedules"`
}

// StatusProvider aggregates what the status endpoint reports.
type StatusProvider interface {
	Properties() types.ServerProperties
	NextRuns() []cron.NextRun
}

// StatusHandler handles requests for the consolidated status endpoint.
type StatusHandler struct {
	provider StatusProvider
	registry IntentRegistry
	live     ActivitySource
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider StatusProvider, registry IntentRegistry, live ActivitySource) *StatusHandler {
	return &StatusHandler{provider: provider, registry: registry, live: live}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	props := h.provider.Properties()
	schedules := h.provider.NextRuns()
	if schedules == nil {
		schedules = []cron.NextRun{}
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Server:    props,
		Uptime:    time.Since(props.StartedAt).Round(time.Second).String(),
		Intents:   len(h.registry.All()),
		Live:      len(h.live.Live()),
		Schedules: schedules,
	})
}

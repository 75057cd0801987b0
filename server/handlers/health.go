package handlers

import "net/http"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Live   int    `json:"live_activities"`
}

// HealthHandler reports that the server is up and how many activities it is
// running.
type HealthHandler struct {
	live ActivitySource
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(live ActivitySource) *HealthHandler {
	return &HealthHandler{live: live}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Live:   len(h.live.Live()),
	})
}

package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// IntentResponse describes one registered intent.
type IntentResponse struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// IntentsHandler lists the registered intents.
type IntentsHandler struct {
	registry IntentRegistry
}

// NewIntentsHandler creates a new IntentsHandler.
func NewIntentsHandler(registry IntentRegistry) *IntentsHandler {
	return &IntentsHandler{registry: registry}
}

// ServeHTTP implements http.Handler.
func (h *IntentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	resp := make([]IntentResponse, 0, len(all))
	for name, source := range all {
		resp = append(resp, IntentResponse{Name: name, Source: source})
	}
	sort.Slice(resp, func(a, b int) bool { return resp[a].Name < resp[b].Name })
	writeJSON(w, http.StatusOK, resp)
}

// RegisterIntentRequest is the body of PUT /intents/{name}.
type RegisterIntentRequest struct {
	Source string `json:"source"`
}

// RegisterIntentHandler registers or replaces an intent. The mapping lasts
// until the next configuration reload.
type RegisterIntentHandler struct {
	logger   *slog.Logger
	registry IntentRegistry
}

// NewRegisterIntentHandler creates a new RegisterIntentHandler.
func NewRegisterIntentHandler(logger *slog.Logger, registry IntentRegistry) *RegisterIntentHandler {
	return &RegisterIntentHandler{logger: logger, registry: registry}
}

// ServeHTTP implements http.Handler.
func (h *RegisterIntentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req RegisterIntentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	h.registry.Register(name, req.Source)
	h.logger.Info("intent registered over http", "intent", name, "source", req.Source)
	w.WriteHeader(http.StatusNoContent)
}

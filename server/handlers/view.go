package handlers

import "net/http"

// ViewHandler returns the declarative content attached by a live activity.
type ViewHandler struct {
	views ViewProvider
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(views ViewProvider) *ViewHandler {
	return &ViewHandler{views: views}
}

// ServeHTTP implements http.Handler. Content is detached when an activity
// ends, so only live activities have a view.
func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, ok := h.views.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no view attached for "+id)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadHandler re-reads the config file and swaps in its intents,
// retrievers and schedules. Activities already running are not touched.
type ReloadHandler struct {
	logger   *slog.Logger
	reloader Reloader
}

// NewReloadHandler creates a new ReloadHandler.
func NewReloadHandler(logger *slog.Logger, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger,
		reloader: reloader,
	}
}

// ServeHTTP responds with the counts the new configuration applied, or 500
// when the file is unreadable or invalid. The previous configuration stays
// in effect on failure.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reloader.Reload()
	if err != nil {
		h.logger.Error("reload rejected, keeping running configuration", "error", err)
		writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	h.logger.Info("reload applied over http",
		"config_path", summary.ConfigPath,
		"intents", summary.Intents,
		"schedules", summary.Schedules,
	)
	writeJSON(w, http.StatusOK, summary)
}

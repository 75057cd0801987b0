package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/nomis52/golaunch/config"
	"gopkg.in/yaml.v3"
)

// configSections are the parts of the config GET /config?section= can select.
var configSections = map[string]func(config.Config) any{
	"intents":    func(c config.Config) any { return c.Intents },
	"schedules":  func(c config.Config) any { return c.Schedules },
	"retrieval":  func(c config.Config) any { return c.Retrieval },
	"history":    func(c config.Config) any { return c.History },
	"monitoring": func(c config.Config) any { return c.Monitoring },
}

// ConfigHandler serves the running configuration as YAML with secrets
// redacted. The section query parameter narrows it to one top-level key.
type ConfigHandler struct {
	configProvider ConfigProvider
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(provider ConfigProvider) *ConfigHandler {
	return &ConfigHandler{
		configProvider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	redacted := h.configProvider.Config().Redacted()

	var body any = redacted
	if section := r.URL.Query().Get("section"); section != "" {
		pick, ok := configSections[section]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown config section "+section+" (available: "+strings.Join(sectionNames(), ", ")+")")
			return
		}
		body = pick(redacted)
	}

	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	if err := yaml.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode config", "error", err)
	}
}

func sectionNames() []string {
	names := make([]string, 0, len(configSections))
	for name := range configSections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

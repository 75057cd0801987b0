// Package handlers provides HTTP handlers for the golaunch server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/config"
	"github.com/nomis52/golaunch/logging"
	"github.com/nomis52/golaunch/present"
	"github.com/nomis52/golaunch/server/history"
	"github.com/nomis52/golaunch/server/types"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader re-reads its configuration and reports what it applied.
type Reloader interface {
	Reload() (types.ReloadSummary, error)
}

// IntentStarter launches activities by intent name.
type IntentStarter interface {
	IntentStart(name string, params activity.Params, opts ...activity.StartOption) (*activity.Handle, error)
}

// IntentRegistry lists and registers intents. *intent.Registry implements it.
type IntentRegistry interface {
	All() map[string]string
	Register(name, locator string)
}

// ActivitySource provides the live activities. *activity.Runtime implements it.
type ActivitySource interface {
	Get(id string) (*activity.Handle, bool)
	Live() []activity.Snapshot
}

// HistoryProvider provides the ended activities.
type HistoryProvider interface {
	Records() []history.Record
	Get(id string) (history.Record, bool)
}

// LogProvider provides captured logs per activity.
type LogProvider interface {
	GetLogs(activityID string) []logging.LogEntry
	Dropped(activityID string) int
}

// ViewProvider provides the attached content of live activities.
type ViewProvider interface {
	Get(ref string) (present.View, bool)
}

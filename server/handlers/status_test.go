package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/nomis52/golaunch/buildinfo"
	"github.com/nomis52/golaunch/server/cron"
	"github.com/nomis52/golaunch/server/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStatusProvider struct {
	props types.ServerProperties
	runs  []cron.NextRun
}

func (m *mockStatusProvider) Properties() types.ServerProperties { return m.props }
func (m *mockStatusProvider) NextRuns() []cron.NextRun          { return m.runs }

func TestStatusHandler(t *testing.T) {
	f := newFixture(t)
	f.start(t, "block", nil, false)

	next := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	provider := &mockStatusProvider{
		props: types.ServerProperties{
			Build:     buildinfo.Get(),
			StartedAt: time.Now().Add(-time.Minute),
			Hostname:  "launch-01",
		},
		runs: []cron.NextRun{{Intents: []string{"echo"}, Cron: "0 * * * *", Next: next}},
	}

	w := serve("GET /status", NewStatusHandler(provider, f.launcher.Intents(), f.launcher.Runtime()), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "launch-01", resp.Server.Hostname)
	assert.Equal(t, "dev", resp.Server.Build.Version)
	assert.Equal(t, "1m0s", resp.Uptime)
	assert.Equal(t, 2, resp.Intents)
	assert.Equal(t, 1, resp.Live)
	require.Len(t, resp.Schedules, 1)
	assert.True(t, next.Equal(resp.Schedules[0].Next))
}

func TestStatusHandler_NoSchedules(t *testing.T) {
	f := newFixture(t)
	provider := &mockStatusProvider{props: types.ServerProperties{StartedAt: time.Now()}}

	w := serve("GET /status", NewStatusHandler(provider, f.launcher.Intents(), f.launcher.Runtime()), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"schedules":[]`)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nomis52/golaunch/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	f := newFixture(t)
	h := NewHealthHandler(f.launcher.Runtime())

	health := func() HealthResponse {
		w := serve("GET /health", h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		var got HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		return got
	}

	assert.Equal(t, HealthResponse{Status: "ok"}, health())

	blocked := f.start(t, "block", nil, false)
	assert.Equal(t, HealthResponse{Status: "ok", Live: 1}, health())

	blocked.Cancel("done")
	res := awaitResult(t, f, blocked.ID())
	assert.Equal(t, activity.StatusCancelled, res.Status)
	assert.Equal(t, HealthResponse{Status: "ok"}, health())
}

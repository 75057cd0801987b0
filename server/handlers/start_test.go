package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRequest(t *testing.T, f *fixture, name, body string) (int, StartResponse, string) {
	t.Helper()
	handler := NewStartHandler(slog.Default(), f.launcher)
	w := serve("POST /intents/{name}/start", handler, http.MethodPost, "/intents/"+name+"/start", body)

	var resp StartResponse
	if w.Code == http.StatusAccepted {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp, w.Body.String()
}

func awaitResult(t *testing.T, f *fixture, id string) activity.Result {
	t.Helper()
	h, ok := f.launcher.Runtime().Get(id)
	if !ok {
		rec, ok := f.history.Get(id)
		require.True(t, ok, "activity %s is neither live nor in history", id)
		return activity.Result{Status: activity.Status(rec.State.String()), Value: rec.Value, Reason: rec.Reason}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, _ := h.Result().Await(ctx)
	require.NoError(t, ctx.Err())
	return res
}

func TestStartHandler(t *testing.T) {
	f := newFixture(t)

	code, resp, _ := startRequest(t, f, "echo", `{"params": {"msg": "hi"}}`)
	require.Equal(t, http.StatusAccepted, code)
	require.NotEmpty(t, resp.ID)

	res := awaitResult(t, f, resp.ID)
	assert.Equal(t, activity.StatusCompleted, res.Status)
	assert.Equal(t, "hi", res.Value)
}

func TestStartHandler_EmptyBody(t *testing.T) {
	f := newFixture(t)
	code, resp, _ := startRequest(t, f, "echo", "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, activity.StatusCompleted, awaitResult(t, f, resp.ID).Status)
}

func TestStartHandler_Container(t *testing.T) {
	f := newFixture(t)
	code, resp, _ := startRequest(t, f, "block", `{"container": "sidebar"}`)
	require.Equal(t, http.StatusAccepted, code)

	require.Eventually(t, func() bool {
		view, ok := f.views.Get(resp.ID)
		return ok && view.Container == "sidebar"
	}, 5*time.Second, 5*time.Millisecond)
}

func TestStartHandler_Timeout(t *testing.T) {
	f := newFixture(t)
	code, resp, _ := startRequest(t, f, "block", `{"timeout": "20ms"}`)
	require.Equal(t, http.StatusAccepted, code)

	res := awaitResult(t, f, resp.ID)
	assert.Equal(t, activity.StatusCancelled, res.Status)
	assert.Equal(t, launcher.ReasonTimeout, res.Reason)
}

func TestStartHandler_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		intent     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "unknown intent", intent: "missing", wantStatus: http.StatusNotFound, wantBody: "intent not registered"},
		{name: "malformed body", intent: "echo", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "bad timeout", intent: "echo", body: `{"timeout": "soon"}`, wantStatus: http.StatusBadRequest, wantBody: "positive duration"},
		{name: "negative timeout", intent: "echo", body: `{"timeout": "-1s"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := startRequest(t, f, tt.intent, tt.body)
			assert.Equal(t, tt.wantStatus, code)
			assert.Contains(t, body, tt.wantBody)
		})
	}
	assert.Empty(t, f.launcher.Runtime().Live())
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/launcher"
	"github.com/nomis52/golaunch/loader"
	"github.com/nomis52/golaunch/logging"
	"github.com/nomis52/golaunch/present"
	"github.com/nomis52/golaunch/server/history"
	"github.com/stretchr/testify/require"
)

var testModules = map[string]string{
	"mem://echo": `<script>
exports.onCreate = function (activity, params) {
	console.info("echo", params.msg);
	activity.finish(params.msg);
};
</script>`,
	"mem://block": `<div id="panel">waiting</div><script>
exports.onCreate = function (activity) {
	activity.onCancel(function (reason) { console.info("stopping", reason); });
};
</script>`,
}

// fixture is a real launcher over in-memory modules, with the stores the
// server wires around it.
type fixture struct {
	launcher  *launcher.Launcher
	history   *history.Store
	collector *logging.LogCollector
	views     *present.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(discard{}, nil))

	f := &fixture{
		history:   history.NewStore(10),
		collector: logging.NewLogCollector(),
		views:     present.NewMemory(),
	}
	ld := loader.New(loader.RetrieverFunc(func(_ context.Context, locator string) (string, error) {
		if src, ok := testModules[locator]; ok {
			return src, nil
		}
		return "", errors.New("not found")
	}))

	l, err := launcher.New(
		launcher.WithLogger(logger),
		launcher.WithLoader(ld),
		launcher.WithPresenter(f.views),
		launcher.WithRuntimeOptions(
			activity.WithLoggerHook(logging.NewCapturingLoggerHook(f.collector)),
			activity.WithObserver(f.history.Observe),
		),
	)
	require.NoError(t, err)
	l.RegisterIntent("echo", "mem://echo")
	l.RegisterIntent("block", "mem://block")
	f.launcher = l

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.Shutdown(ctx)
	})
	return f
}

// start launches name and waits until it reached the state wanted.
func (f *fixture) start(t *testing.T, name string, params activity.Params, terminal bool) *activity.Handle {
	t.Helper()
	h, err := f.launcher.IntentStart(name, params)
	require.NoError(t, err)
	if terminal {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = h.Result().Await(ctx)
		require.NoError(t, ctx.Err())
		require.Eventually(t, func() bool {
			_, ok := f.history.Get(h.ID())
			return ok
		}, time.Second, 5*time.Millisecond)
	} else {
		require.Eventually(t, func() bool {
			_, ok := f.views.Get(h.ID())
			return ok
		}, 5*time.Second, 5*time.Millisecond)
	}
	return h
}

// serve routes a single request through a mux so path values are set.
func serve(pattern string, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle(pattern, h)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

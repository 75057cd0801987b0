// Package activity implements the lifecycle of activity instances.
//
// An activity is a small module loaded from a locator and run inside a
// Sandbox. Each run is an Instance with a four-state machine:
//
//	Pending ──finish──▶ Completed
//	        ──cancel──▶ Cancelled
//	        ──fail────▶ Failed
//
// The first terminal call wins and every later call is ignored. Module code
// reaches its instance only through a Capability; launchers hold a Handle.
//
// # Launching
//
// A Runtime ties a Loader and a Sandbox together:
//
//	rt, err := activity.NewRuntime(ld, sb, activity.WithLogger(logger))
//	h, err := rt.Start("report", "https://example.com/report.html", activity.Params{"day": "mon"})
//	res, err := h.Result().Await(ctx)
//
// Start only fails for usage errors. Retrieval, compile and runtime failures
// move the instance to Failed and arrive on the result future, where Await
// returns them as its error.
//
// # Cancellation
//
// Cancellation is cooperative. Handlers registered with OnCancel run in
// registration order before the instance becomes Cancelled, and a handler
// that fails does not stop the rest. Module code already running is not
// interrupted. There is no built-in deadline; callers that need one schedule
// a timer that calls Handle.Cancel.
//
// # Teardown
//
// After the state is set the module's OnDestroy hook runs best-effort, the
// presenter is detached, the module is closed and only then does the result
// future settle.
package activity

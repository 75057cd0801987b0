// Package sandbox runs activity modules in embedded JavaScript engines.
//
// Every instance gets its own goja runtime driven by its own event loop, so
// no two modules share a global scope, even when they come from the same
// locator. The global scope holds the ECMAScript built-ins, setTimeout and
// friends from the loop, and a console that writes to the instance logger.
// Nothing else from the host is reachable.
//
// A module's executable text is compiled as the body of
//
//	function(exports, activity) { ... }
//
// and may assign exports.onCreate and exports.onDestroy. The activity object
// is the instance capability: state(), finish(v), cancel(reason), fail(e),
// onCancel(fn), params, root and id.
package sandbox

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/nomis52/golaunch/activity"
)

// Engine creates sandboxed modules.
type Engine struct {
	logger *slog.Logger
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for engine-level events. Module console output
// goes to the instance logger instead.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With("component", "sandbox")
	}
}

// WithStrictMode compiles module code in strict mode.
func WithStrictMode(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default().With("component", "sandbox"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Instantiate starts a fresh runtime and event loop bound to c.
func (e *Engine) Instantiate(c *activity.Capability) (activity.Module, error) {
	loop := eventloop.NewEventLoop(eventloop.EnableConsole(false))
	m := &module{
		cap:    c,
		loop:   loop,
		logger: c.Logger(),
		strict: e.strict,
	}
	loop.Start()

	errc := make(chan error, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		errc <- m.setup(vm)
	})
	if err := <-errc; err != nil {
		loop.StopNoWait()
		return nil, fmt.Errorf("preparing runtime: %w", err)
	}

	e.logger.Debug("module instantiated", "activity_id", c.ID())
	return m, nil
}

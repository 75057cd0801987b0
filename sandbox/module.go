package sandbox

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/nomis52/golaunch/activity"
)

const (
	moduleName   = "activity.js"
	modulePrefix = "(function(exports, activity) {\n"
	moduleSuffix = "\n})"
)

// module is one instance's runtime. Every field below loop is only touched
// on the loop goroutine.
type module struct {
	cap       *activity.Capability
	loop      *eventloop.EventLoop
	logger    *slog.Logger
	strict    bool
	closeOnce sync.Once

	vm        *goja.Runtime
	freeze    goja.Callable
	params    *goja.Object
	activity  *goja.Object
	ran       bool
	unhandled map[*goja.Promise]struct{}
}

func (m *module) setup(vm *goja.Runtime) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	m.vm = vm
	global := vm.GlobalObject()
	if err := global.Delete("require"); err != nil {
		return fmt.Errorf("removing require: %w", err)
	}

	object := global.Get("Object").ToObject(vm)
	freeze, ok := goja.AssertFunction(object.Get("freeze"))
	if !ok {
		return fmt.Errorf("Object.freeze is not callable")
	}
	m.freeze = freeze

	if err := global.Set("console", m.newConsole()); err != nil {
		return fmt.Errorf("installing console: %w", err)
	}
	if err := m.guardAsync(); err != nil {
		return fmt.Errorf("installing timers: %w", err)
	}

	m.params = m.toJS(map[string]any(m.cap.Params())).(*goja.Object)
	m.activity, err = m.newActivityObject()
	return err
}

// Run compiles and runs source with a fresh export table.
func (m *module) Run(source string) activity.Hooks {
	if m.ran {
		m.cap.Fail(&activity.RuntimeError{Err: fmt.Errorf("module already ran")})
		return activity.Hooks{}
	}
	m.ran = true

	prog, err := goja.Compile(moduleName, modulePrefix+source+moduleSuffix, m.strict)
	if err != nil {
		m.cap.Fail(&activity.CompileError{Err: err})
		return activity.Hooks{}
	}

	body, err := m.runProgram(prog)
	if err != nil {
		m.cap.Fail(err)
		return activity.Hooks{}
	}
	fn, ok := goja.AssertFunction(body)
	if !ok {
		m.cap.Fail(&activity.CompileError{Err: fmt.Errorf("module body is not a function")})
		return activity.Hooks{}
	}

	exports := m.vm.NewObject()
	if _, err := m.call("", fn, exports, m.activity); err != nil {
		m.cap.Fail(err)
		return activity.Hooks{}
	}
	return m.hooks(exports)
}

func (m *module) runProgram(prog *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &activity.RuntimeError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err = m.vm.RunProgram(prog)
	if err != nil {
		return nil, &activity.RuntimeError{Err: m.exceptionError(err)}
	}
	return v, nil
}

// hooks reads the recognized exports. Non-callable values are ignored.
func (m *module) hooks(exports *goja.Object) activity.Hooks {
	var h activity.Hooks
	if fn, ok := goja.AssertFunction(exports.Get("onCreate")); ok {
		h.OnCreate = func(activity.Params) error {
			return m.onCreate(fn)
		}
	}
	if fn, ok := goja.AssertFunction(exports.Get("onDestroy")); ok {
		h.OnDestroy = func() error {
			_, err := m.call("onDestroy", fn, m.activity)
			return err
		}
	}
	return h
}

func (m *module) onCreate(fn goja.Callable) error {
	v, err := m.call("onCreate", fn, m.activity, m.params)
	if err != nil {
		return err
	}
	if _, ok := v.Export().(*goja.Promise); ok {
		m.failOnRejection("onCreate", v.ToObject(m.vm))
	}
	return nil
}

// failOnRejection fails the instance if the promise returned by an async
// hook rejects.
func (m *module) failOnRejection(hook string, promise *goja.Object) {
	then, ok := goja.AssertFunction(promise.Get("then"))
	if !ok {
		return
	}
	onRejected := m.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		m.cap.Fail(&activity.RuntimeError{Hook: hook, Err: m.toError(call.Argument(0))})
		return goja.Undefined()
	})
	if _, err := then(promise, goja.Undefined(), onRejected); err != nil {
		m.logger.Warn("failed to watch async hook", "hook", hook, "error", err)
	}
}

// call invokes a script function with the activity object as this. A thrown
// value or a Go panic becomes a RuntimeError attributed to hook.
func (m *module) call(hook string, fn goja.Callable, args ...goja.Value) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &activity.RuntimeError{Hook: hook, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err = fn(m.activity, args...)
	if err != nil {
		return nil, &activity.RuntimeError{Hook: hook, Err: m.exceptionError(err)}
	}
	return v, nil
}

func (m *module) exceptionError(err error) error {
	if ex, ok := err.(*goja.Exception); ok {
		if converted := m.toError(ex.Value()); converted != nil {
			return converted
		}
	}
	return err
}

// Do runs fn on the module's loop. Work scheduled after Close is dropped.
func (m *module) Do(fn func()) {
	m.loop.RunOnLoop(func(*goja.Runtime) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic on module loop", "panic", r)
			}
		}()
		fn()
	})
}

// Close stops the loop without waiting, so it may be called from the loop.
func (m *module) Close() {
	m.closeOnce.Do(m.loop.StopNoWait)
}

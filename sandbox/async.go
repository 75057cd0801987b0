package sandbox

import (
	"errors"

	"github.com/dop251/goja"
	"github.com/nomis52/golaunch/activity"
)

// timerGlobals are the loop functions whose callbacks run outside any hook.
var timerGlobals = []string{"setTimeout", "setInterval", "setImmediate"}

// guardAsync routes exceptions from timer callbacks and unhandled promise
// rejections to Fail. The loop itself drops them.
func (m *module) guardAsync() error {
	global := m.vm.GlobalObject()
	for _, name := range timerGlobals {
		schedule, ok := goja.AssertFunction(global.Get(name))
		if !ok {
			continue
		}
		if err := global.Set(name, m.guardTimer(schedule)); err != nil {
			return err
		}
	}
	m.vm.SetPromiseRejectionTracker(m.trackRejection)
	return nil
}

func (m *module) guardTimer(schedule goja.Callable) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := call.Arguments
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			cb := m.vm.ToValue(func(c goja.FunctionCall) goja.Value {
				if _, err := m.call("timer", fn, c.Arguments...); err != nil {
					m.cap.Fail(err)
				}
				return goja.Undefined()
			})
			args = append([]goja.Value{cb}, args[1:]...)
		}
		v, err := schedule(goja.Undefined(), args...)
		if err != nil {
			if ex, ok := err.(*goja.Exception); ok {
				panic(ex.Value())
			}
			panic(m.vm.NewGoError(err))
		}
		return v
	}
}

// trackRejection records rejected promises without a handler. A promise
// still unhandled when the current loop job is done fails the instance.
func (m *module) trackRejection(p *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		if m.unhandled == nil {
			m.unhandled = make(map[*goja.Promise]struct{})
		}
		m.unhandled[p] = struct{}{}
		m.loop.RunOnLoop(func(*goja.Runtime) {
			m.reportRejection(p)
		})
	case goja.PromiseRejectionHandle:
		delete(m.unhandled, p)
	}
}

func (m *module) reportRejection(p *goja.Promise) {
	if _, ok := m.unhandled[p]; !ok {
		return
	}
	delete(m.unhandled, p)
	err := m.toError(p.Result())
	if err == nil {
		err = errors.New("promise rejected without a reason")
	}
	m.logger.Warn("unhandled promise rejection", "error", err)
	m.cap.Fail(&activity.RuntimeError{Hook: "promise", Err: err})
}

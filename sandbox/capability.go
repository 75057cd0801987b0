package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

// newActivityObject builds the frozen script view of the capability.
func (m *module) newActivityObject() (*goja.Object, error) {
	vm := m.vm
	obj := vm.NewObject()

	members := map[string]any{
		"id":     m.cap.ID(),
		"root":   m.cap.Root(),
		"params": m.params,
		"state": func(goja.FunctionCall) goja.Value {
			return vm.ToValue(m.cap.State().Label())
		},
		"finish": func(call goja.FunctionCall) goja.Value {
			m.cap.Finish(call.Argument(0).Export())
			return goja.Undefined()
		},
		"cancel": func(call goja.FunctionCall) goja.Value {
			m.cap.Cancel(optionalString(call.Argument(0)))
			return goja.Undefined()
		},
		"fail": func(call goja.FunctionCall) goja.Value {
			m.cap.Fail(m.toError(call.Argument(0)))
			return goja.Undefined()
		},
		"onCancel": func(call goja.FunctionCall) goja.Value {
			fn, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				return vm.ToValue(false)
			}
			return vm.ToValue(m.cap.OnCancel(func() error {
				_, err := m.call("onCancel", fn)
				return err
			}))
		},
	}

	for name, v := range members {
		if err := obj.Set(name, v); err != nil {
			return nil, fmt.Errorf("setting activity.%s: %w", name, err)
		}
	}
	if _, err := m.freeze(goja.Undefined(), obj); err != nil {
		return nil, fmt.Errorf("freezing activity object: %w", err)
	}
	return obj, nil
}

func optionalString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

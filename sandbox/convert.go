package sandbox

import (
	"encoding/json"

	"github.com/dop251/goja"
	"github.com/nomis52/golaunch/activity"
)

// toJS converts v into plain script values. Maps and slices become frozen
// objects and arrays, so modules cannot write back into host data.
func (m *module) toJS(v any) goja.Value {
	switch t := v.(type) {
	case map[string]any:
		obj := m.vm.NewObject()
		for k, e := range t {
			_ = obj.Set(k, m.toJS(e))
		}
		_, _ = m.freeze(goja.Undefined(), obj)
		return obj
	case []any:
		items := make([]any, len(t))
		for n, e := range t {
			items[n] = m.toJS(e)
		}
		arr := m.vm.NewArray(items...)
		_, _ = m.freeze(goja.Undefined(), arr)
		return arr
	case activity.Params:
		return m.toJS(map[string]any(t))
	default:
		return m.vm.ToValue(v)
	}
}

// toError normalizes a failure value raised by module code. Error objects
// keep their name and message; anything else becomes a ScriptError carrying
// the exported value. Undefined and null map to nil.
func (m *module) toError(v goja.Value) error {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}

	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		return &activity.ScriptError{
			Name:    optionalString(obj.Get("name")),
			Message: optionalString(obj.Get("message")),
		}
	}

	exported := v.Export()
	if s, ok := exported.(string); ok {
		return &activity.ScriptError{Message: s}
	}
	return &activity.ScriptError{Message: describe(v, exported), Value: exported}
}

func describe(v goja.Value, exported any) string {
	if b, err := json.Marshal(exported); err == nil {
		return string(b)
	}
	return v.String()
}

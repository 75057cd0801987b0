package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/nomis52/golaunch/loader"
)

// Params is the caller-supplied input of an activity.
type Params map[string]any

// clone returns a deep copy of p made only of plain data: scalars,
// map[string]any and []any. Neither side can reach the other's values.
func (p Params) clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = plain(reflect.ValueOf(v))
	}
	return c
}

// plain copies v into plain data. Scalars keep their type. Structs and maps
// with non-string keys go through their JSON form; values JSON cannot encode
// become their fmt text.
func plain(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return plain(v.Elem())
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if v.CanInterface() {
			return v.Interface()
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		items := make([]any, v.Len())
		for n := range items {
			items[n] = plain(v.Index(n))
		}
		return items
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			if v.IsNil() {
				return nil
			}
			m := make(map[string]any, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = plain(iter.Value())
			}
			return m
		}
	}
	return viaJSON(v)
}

func viaJSON(v reflect.Value) any {
	if !v.CanInterface() {
		return fmt.Sprint(v)
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return fmt.Sprint(v.Interface())
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return string(b)
	}
	return out
}

// Hooks is the export table a module populates. Nil hooks are not invoked.
type Hooks struct {
	// OnCreate is invoked once after the module's top-level code ran.
	OnCreate func(params Params) error
	// OnDestroy is invoked best-effort after the terminal transition.
	OnDestroy func() error
}

// Module is a single instantiated activity module.
//
// All module code runs on the module's own serial executor. The instance
// calls Run and every hook through Do, and the capability methods are
// invoked by module code on that same executor.
type Module interface {
	// Run compiles and executes source with a fresh export table and returns
	// the recognized hooks. Compile errors and exceptions thrown by top-level
	// code are not returned; they are reported through the capability's Fail.
	Run(source string) Hooks

	// Do schedules fn on the module's executor.
	Do(fn func())

	// Close stops the executor without waiting. Pending work is dropped.
	Close()
}

// Sandbox creates isolated modules bound to a capability.
type Sandbox interface {
	Instantiate(c *Capability) (Module, error)
}

// Loader fetches and splits module content.
type Loader interface {
	Load(ctx context.Context, locator string) (loader.Content, error)
}

// Presenter receives an instance's declarative content.
// Attach is called once after a successful load and Detach once at teardown.
type Presenter interface {
	Attach(ref, content, container string)
	Detach(ref string)
}

// discardPresenter is used when no presenter is configured.
type discardPresenter struct{}

func (discardPresenter) Attach(ref, content, container string) {}
func (discardPresenter) Detach(ref string)                    {}

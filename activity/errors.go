package activity

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned when launching an instance that was already
// launched or has reached a terminal state.
var ErrAlreadyStarted = errors.New("activity already started")

// errUnspecifiedFailure replaces a nil error passed to Fail.
var errUnspecifiedFailure = errors.New("activity failed")

// CompileError reports that a module's executable text did not compile.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RuntimeError reports an exception raised while executing module code.
// Hook is empty for the module's top-level code.
type RuntimeError struct {
	Hook string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Hook == "" {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error in %s: %v", e.Hook, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ScriptError carries a failure value raised by module code that was not an
// error in its own right, e.g. fail("quota exceeded") or fail({code: 7}).
type ScriptError struct {
	// Name is the error name for script Error objects, e.g. "TypeError".
	Name    string
	Message string
	// Value is the exported value the module passed, when it was not a string
	// or an Error object.
	Value any
}

func (e *ScriptError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// panicError converts a recovered panic value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}

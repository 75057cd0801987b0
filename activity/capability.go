package activity

import (
	"log/slog"
)

// CancelHandler is registered by module code and run when the instance is cancelled.
type CancelHandler func() error

// Capability is the restricted view of an instance handed to module code.
// It is the only way a module can affect its own instance.
type Capability struct {
	inst *Instance
}

// ID returns the instance ID.
func (c *Capability) ID() string {
	return c.inst.id
}

// State returns the current state of the instance.
func (c *Capability) State() State {
	return c.inst.State()
}

// Finish completes the instance with value.
func (c *Capability) Finish(value any) {
	c.inst.Finish(value)
}

// Cancel cancels the instance, running its cancel handlers first.
func (c *Capability) Cancel(reason string) {
	c.inst.Cancel(reason)
}

// Fail fails the instance with err.
func (c *Capability) Fail(err error) {
	c.inst.Fail(err)
}

// OnCancel registers h to run if the instance is cancelled. It returns false
// when h is nil or the instance has already begun a terminal transition.
func (c *Capability) OnCancel(h CancelHandler) bool {
	return c.inst.onCancel(h)
}

// Params returns a copy of the instance's params.
func (c *Capability) Params() Params {
	return c.inst.params.clone()
}

// Root returns the presentation container reference of the instance.
func (c *Capability) Root() string {
	return c.inst.container
}

// Logger returns the instance logger. Module console output goes here.
func (c *Capability) Logger() *slog.Logger {
	return c.inst.logger
}

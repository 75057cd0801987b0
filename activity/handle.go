package activity

// Handle is returned to the launcher of an activity.
type Handle struct {
	inst *Instance
}

// ID returns the instance ID.
func (h *Handle) ID() string {
	return h.inst.id
}

// Intent returns the intent name the instance was started for.
func (h *Handle) Intent() string {
	return h.inst.intent
}

// Result returns the instance's result future.
func (h *Handle) Result() *Future {
	return h.inst.future
}

// State returns the current state of the instance.
func (h *Handle) State() State {
	return h.inst.State()
}

// Cancel requests cancellation. It does not wait: the cancel handlers run on
// the module's executor and the outcome is reported through Result. Calls
// after the instance became terminal are ignored.
func (h *Handle) Cancel(reason string) {
	h.inst.requestCancel(reason)
}

// Snapshot returns the current view of the instance.
func (h *Handle) Snapshot() Snapshot {
	return h.inst.Snapshot()
}

package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Instance is one run of an activity module.
//
// An instance starts Pending and makes exactly one terminal transition. The
// first of Finish, Fail or Cancel claims the transition under the instance
// mutex; every later call is a no-op. Cancel claims before running its
// handlers, so a handler that calls Finish cannot produce a second outcome,
// while State keeps reporting Pending until the handlers have run.
type Instance struct {
	id        string
	intent    string
	params    Params
	container string
	createdAt time.Time

	logger     *slog.Logger
	loader     Loader
	sandbox    Sandbox
	presenter  Presenter
	onLaunch   func(*Instance)
	onTerminal func(*Instance, Result)

	// ctx bounds retrieval and is cancelled at teardown.
	ctx       context.Context
	cancelCtx context.CancelFunc

	capability *Capability
	future     *Future

	mu             sync.Mutex
	state          State
	claimed        bool
	launched       bool
	attached       bool
	locator        string
	module         Module
	hooks          *Hooks
	cancelHandlers []CancelHandler
	endedAt        time.Time
}

// ID returns the instance ID.
func (i *Instance) ID() string {
	return i.id
}

// State returns the current state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Capability returns the capability object bound to this instance.
func (i *Instance) Capability() *Capability {
	return i.capability
}

// Handle returns the launch handle for this instance.
func (i *Instance) Handle() *Handle {
	return &Handle{inst: i}
}

// Launch starts loading and running the module at locator in the background.
// It returns ErrAlreadyStarted if the instance was launched before or is no
// longer pending. Loading and execution failures never surface here; they
// fail the instance and are reported through its result future.
func (i *Instance) Launch(locator string) error {
	i.mu.Lock()
	if i.launched || i.claimed || i.state != Pending {
		i.mu.Unlock()
		return ErrAlreadyStarted
	}
	i.launched = true
	i.locator = locator
	i.mu.Unlock()

	if i.onLaunch != nil {
		i.onLaunch(i)
	}
	i.logger.Info("launching activity", "locator", locator)

	go i.run(locator)
	return nil
}

// run is the loading pipeline: retrieve, split, attach, instantiate, execute.
func (i *Instance) run(locator string) {
	content, err := i.loader.Load(i.ctx, locator)
	if err != nil {
		i.Fail(err)
		return
	}

	i.mu.Lock()
	claimed := i.claimed
	i.mu.Unlock()
	if claimed || i.ctx.Err() != nil {
		i.logger.Debug("activity ended during retrieval", "locator", locator)
		return
	}

	module, err := i.sandbox.Instantiate(i.capability)
	if err != nil {
		i.Fail(&RuntimeError{Hook: "instantiate", Err: err})
		return
	}

	// Binding the module and attaching happen under the same lock a
	// launcher-side cancel uses to claim, so either the module is visible to
	// that cancel or it is never run.
	i.mu.Lock()
	if i.claimed {
		i.mu.Unlock()
		module.Close()
		return
	}
	i.module = module
	i.attached = true
	i.presenter.Attach(i.id, content.Declarative, i.container)
	i.mu.Unlock()

	module.Do(func() {
		i.execute(module, content.Executable)
	})
}

// execute runs on the module executor.
func (i *Instance) execute(module Module, source string) {
	hooks := module.Run(source)

	i.mu.Lock()
	proceed := !i.claimed
	if proceed {
		i.hooks = &hooks
	}
	i.mu.Unlock()

	if !proceed || hooks.OnCreate == nil {
		return
	}

	params := i.params.clone()
	if err := guard("onCreate", func() error { return hooks.OnCreate(params) }); err != nil {
		i.Fail(err)
	}
}

// Finish completes the instance with value.
func (i *Instance) Finish(value any) {
	if !i.claim() {
		i.logger.Debug("finish ignored, instance already terminal")
		return
	}
	i.conclude(Completed, Result{Status: StatusCompleted, Value: value})
}

// Fail fails the instance. A nil err is replaced by a generic failure.
func (i *Instance) Fail(err error) {
	if err == nil {
		err = errUnspecifiedFailure
	}
	if !i.claim() {
		i.logger.Debug("fail ignored, instance already terminal", "error", err)
		return
	}
	i.conclude(Failed, Result{Status: StatusFailed, Err: err})
}

// Cancel runs every registered cancel handler in registration order, then
// marks the instance Cancelled. A failing handler does not stop the others.
//
// Cancel must be called on the module executor once a module is bound;
// module code reaches it through the capability. Launchers use Handle.Cancel.
func (i *Instance) Cancel(reason string) {
	handlers, ok := i.claimCancel()
	if !ok {
		i.logger.Debug("cancel ignored, instance already terminal", "reason", reason)
		return
	}
	i.runCancelHandlers(handlers)
	i.conclude(Cancelled, Result{Status: StatusCancelled, Reason: reason})
}

// requestCancel cancels from outside the module executor.
func (i *Instance) requestCancel(reason string) {
	i.mu.Lock()
	if module := i.module; module != nil {
		i.mu.Unlock()
		module.Do(func() { i.Cancel(reason) })
		return
	}
	if i.claimed {
		i.mu.Unlock()
		return
	}
	// No module is bound and none will be once claimed is set, so the
	// transition can run on this goroutine.
	i.claimed = true
	handlers := i.cancelHandlers
	i.cancelHandlers = nil
	i.mu.Unlock()

	i.runCancelHandlers(handlers)
	i.conclude(Cancelled, Result{Status: StatusCancelled, Reason: reason})
}

func (i *Instance) claim() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.claimed {
		return false
	}
	i.claimed = true
	return true
}

func (i *Instance) claimCancel() ([]CancelHandler, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.claimed {
		return nil, false
	}
	i.claimed = true
	handlers := i.cancelHandlers
	i.cancelHandlers = nil
	return handlers, true
}

func (i *Instance) onCancel(h CancelHandler) bool {
	if h == nil {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.claimed {
		return false
	}
	i.cancelHandlers = append(i.cancelHandlers, h)
	return true
}

func (i *Instance) runCancelHandlers(handlers []CancelHandler) {
	for n, h := range handlers {
		if err := guard("onCancel", h); err != nil {
			i.logger.Warn("cancel handler failed", "index", n, "error", err)
		}
	}
}

// conclude sets the terminal state, runs the destroy hook, tears the
// instance down and settles the result future, in that order.
func (i *Instance) conclude(state State, r Result) {
	i.mu.Lock()
	i.state = state
	i.endedAt = time.Now()
	hooks := i.hooks
	module := i.module
	attached := i.attached
	i.mu.Unlock()

	logger := i.logger.With("state", state.String())
	switch state {
	case Failed:
		logger.Warn("activity failed", "error", r.Err)
	case Cancelled:
		logger.Info("activity cancelled", "reason", r.Reason)
	default:
		logger.Info("activity completed")
	}

	if hooks != nil && hooks.OnDestroy != nil {
		if err := guard("onDestroy", hooks.OnDestroy); err != nil {
			logger.Debug("destroy hook failed", "error", err)
		}
	}

	if attached {
		i.presenter.Detach(i.id)
	}

	i.mu.Lock()
	i.cancelHandlers = nil
	i.hooks = nil
	i.module = nil
	i.attached = false
	i.mu.Unlock()

	if module != nil {
		module.Close()
	}
	i.cancelCtx()

	if i.onTerminal != nil {
		i.onTerminal(i, r)
	}
	i.future.settle(r)
}

// guard calls fn, converting returned errors and panics into RuntimeErrors
// attributed to hook.
func guard(hook string, fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &RuntimeError{Hook: hook, Err: panicError(v)}
		}
	}()

	if ferr := fn(); ferr != nil {
		var rerr *RuntimeError
		if errors.As(ferr, &rerr) {
			return ferr
		}
		return &RuntimeError{Hook: hook, Err: ferr}
	}
	return nil
}

// Snapshot is a point-in-time view of an instance.
type Snapshot struct {
	ID        string
	Intent    string
	Locator   string
	Container string
	State     State
	CreatedAt time.Time
	EndedAt   time.Time
	// Result is set once the instance is terminal.
	Result *Result
}

// Snapshot returns the current view of the instance.
func (i *Instance) Snapshot() Snapshot {
	i.mu.Lock()
	s := Snapshot{
		ID:        i.id,
		Intent:    i.intent,
		Locator:   i.locator,
		Container: i.container,
		State:     i.state,
		CreatedAt: i.createdAt,
		EndedAt:   i.endedAt,
	}
	i.mu.Unlock()

	if r, ok := i.future.Result(); ok {
		s.Result = &r
	}
	return s
}

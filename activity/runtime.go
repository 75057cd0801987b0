package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nomis52/golaunch/logging"
	"github.com/nomis52/golaunch/metrics"
)

// Runtime creates activity instances and tracks the live ones.
type Runtime struct {
	loader     Loader
	sandbox    Sandbox
	presenter  Presenter
	logger     *slog.Logger
	loggerHook logging.LoggerHook
	registry   metrics.Registry
	metrics    *runtimeMetrics
	observers  []func(Snapshot)

	mu   sync.RWMutex
	live map[string]*Instance
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the base logger. Instance loggers derive from it.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger.With("component", "activity")
	}
}

// WithLoggerHook wraps every instance logger, e.g. to capture module logs.
func WithLoggerHook(hook logging.LoggerHook) Option {
	return func(r *Runtime) {
		r.loggerHook = hook
	}
}

// WithPresenter sets the presentation collaborator.
func WithPresenter(p Presenter) Option {
	return func(r *Runtime) {
		r.presenter = p
	}
}

// WithMetricsRegistry records launch and outcome metrics in reg.
func WithMetricsRegistry(reg metrics.Registry) Option {
	return func(r *Runtime) {
		r.registry = reg
	}
}

// WithObserver registers fn to be called with the final snapshot of every
// instance, right before its result future settles.
func WithObserver(fn func(Snapshot)) Option {
	return func(r *Runtime) {
		r.observers = append(r.observers, fn)
	}
}

// NewRuntime creates a Runtime that loads modules with l and runs them in s.
func NewRuntime(l Loader, s Sandbox, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		loader:    l,
		sandbox:   s,
		presenter: discardPresenter{},
		logger:    slog.Default().With("component", "activity"),
		live:      make(map[string]*Instance),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.registry != nil {
		m, err := newRuntimeMetrics(r.registry)
		if err != nil {
			return nil, fmt.Errorf("registering activity metrics: %w", err)
		}
		r.metrics = m
	}

	return r, nil
}

// StartOption configures a single instance.
type StartOption func(*Instance)

// WithContainer sets the presentation container the instance attaches to.
func WithContainer(container string) StartOption {
	return func(i *Instance) {
		i.container = container
	}
}

// NewInstance creates a Pending instance that has not been launched.
func (r *Runtime) NewInstance(intent string, params Params, opts ...StartOption) *Instance {
	id := uuid.NewString()

	logger := r.logger
	if r.loggerHook != nil {
		logger = r.loggerHook.LoggerForActivity(logger, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	inst := &Instance{
		id:         id,
		intent:     intent,
		params:     params.clone(),
		createdAt:  time.Now(),
		logger:     logger.With("intent", intent, "activity_id", id),
		loader:     r.loader,
		sandbox:    r.sandbox,
		presenter:  r.presenter,
		onLaunch:   r.track,
		onTerminal: r.untrack,
		ctx:        ctx,
		cancelCtx:  cancel,
		future:     newFuture(),
		state:      Pending,
	}
	inst.capability = &Capability{inst: inst}

	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Start creates an instance for intent and launches the module at locator.
// The returned handle is usable immediately; the outcome arrives on its
// result future.
func (r *Runtime) Start(intent, locator string, params Params, opts ...StartOption) (*Handle, error) {
	inst := r.NewInstance(intent, params, opts...)
	if err := inst.Launch(locator); err != nil {
		return nil, err
	}
	return inst.Handle(), nil
}

// Get returns the handle of a live instance.
func (r *Runtime) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.live[id]
	if !ok {
		return nil, false
	}
	return inst.Handle(), true
}

// Live returns snapshots of all live instances, oldest first.
func (r *Runtime) Live() []Snapshot {
	r.mu.RLock()
	instances := make([]*Instance, 0, len(r.live))
	for _, inst := range r.live {
		instances = append(instances, inst)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(instances))
	for _, inst := range instances {
		snapshots = append(snapshots, inst.Snapshot())
	}
	sort.Slice(snapshots, func(a, b int) bool {
		return snapshots[a].CreatedAt.Before(snapshots[b].CreatedAt)
	})
	return snapshots
}

// CancelAll requests cancellation of every live instance.
func (r *Runtime) CancelAll(reason string) {
	r.mu.RLock()
	instances := make([]*Instance, 0, len(r.live))
	for _, inst := range r.live {
		instances = append(instances, inst)
	}
	r.mu.RUnlock()

	if len(instances) > 0 {
		r.logger.Info("cancelling live activities", "count", len(instances), "reason", reason)
	}
	for _, inst := range instances {
		inst.requestCancel(reason)
	}
}

func (r *Runtime) track(inst *Instance) {
	r.mu.Lock()
	r.live[inst.id] = inst
	active := len(r.live)
	r.mu.Unlock()

	r.metrics.launched(inst.intent, active)
}

func (r *Runtime) untrack(inst *Instance, result Result) {
	r.mu.Lock()
	delete(r.live, inst.id)
	active := len(r.live)
	r.mu.Unlock()

	r.metrics.concluded(inst.intent, result.Status, active)

	if len(r.observers) == 0 {
		return
	}
	snapshot := inst.Snapshot()
	snapshot.Result = &result
	for _, observe := range r.observers {
		observe(snapshot)
	}
}

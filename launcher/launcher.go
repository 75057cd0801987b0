// Package launcher wires the intent registry, content loader, sandbox,
// presenter and activity runtime into the entry points callers use:
// RegisterIntent and IntentStart.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/intent"
	"github.com/nomis52/golaunch/loader"
	"github.com/nomis52/golaunch/present"
	"github.com/nomis52/golaunch/sandbox"
)

// ReasonTimeout is the cancel reason used by CancelAfter.
const ReasonTimeout = "timeout"

// Launcher starts activities by intent name.
type Launcher struct {
	intents   *intent.Registry
	runtime   *activity.Runtime
	presenter activity.Presenter
	logger    *slog.Logger
}

type options struct {
	logger      *slog.Logger
	intents     *intent.Registry
	loader      activity.Loader
	sandbox     activity.Sandbox
	presenter   activity.Presenter
	runtimeOpts []activity.Option
}

// Option configures a Launcher.
type Option func(*options)

// WithLogger sets the logger for the launcher and every component it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry uses an existing intent registry.
func WithRegistry(r *intent.Registry) Option {
	return func(o *options) {
		o.intents = r
	}
}

// WithLoader replaces the default loader.
func WithLoader(l activity.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithSandbox replaces the default goja sandbox.
func WithSandbox(s activity.Sandbox) Option {
	return func(o *options) {
		o.sandbox = s
	}
}

// WithPresenter replaces the default in-memory presenter.
func WithPresenter(p activity.Presenter) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithRuntimeOptions passes options through to the activity runtime.
func WithRuntimeOptions(opts ...activity.Option) Option {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, opts...)
	}
}

// New creates a Launcher. Without options it retrieves http(s) and file
// locators, runs modules in goja and keeps views in memory.
func New(opts ...Option) (*Launcher, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.intents == nil {
		o.intents = intent.NewRegistry()
	}
	if o.loader == nil {
		o.loader = loader.New(NewRetriever(RetrieverConfig{}), loader.WithLogger(o.logger))
	}
	if o.sandbox == nil {
		o.sandbox = sandbox.New(sandbox.WithLogger(o.logger))
	}
	if o.presenter == nil {
		o.presenter = present.NewMemory(present.WithLogger(o.logger))
	}

	runtimeOpts := append([]activity.Option{
		activity.WithLogger(o.logger),
		activity.WithPresenter(o.presenter),
	}, o.runtimeOpts...)
	rt, err := activity.NewRuntime(o.loader, o.sandbox, runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating activity runtime: %w", err)
	}

	return &Launcher{
		intents:   o.intents,
		runtime:   rt,
		presenter: o.presenter,
		logger:    o.logger.With("component", "launcher"),
	}, nil
}

// RegisterIntent maps name to locator, replacing any earlier mapping.
func (l *Launcher) RegisterIntent(name, locator string) {
	l.intents.Register(name, locator)
	l.logger.Debug("intent registered", "intent", name, "locator", locator)
}

// IntentStart launches the module registered for name. It fails
// synchronously with intent.ErrNotRegistered when name is unknown; every
// other failure is reported through the returned handle's result.
func (l *Launcher) IntentStart(name string, params activity.Params, opts ...activity.StartOption) (*activity.Handle, error) {
	locator, err := l.intents.Lookup(name)
	if err != nil {
		return nil, err
	}
	return l.runtime.Start(name, locator, params, opts...)
}

// Intents returns the registry.
func (l *Launcher) Intents() *intent.Registry {
	return l.intents
}

// Runtime returns the activity runtime.
func (l *Launcher) Runtime() *activity.Runtime {
	return l.runtime
}

// Presenter returns the presenter activities attach to.
func (l *Launcher) Presenter() activity.Presenter {
	return l.presenter
}

// Shutdown cancels every live activity and waits until they are all
// terminal or ctx is done.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.runtime.CancelAll("shutdown")

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		live := l.runtime.Live()
		if len(live) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d activities still live: %w", len(live), ctx.Err())
		case <-ticker.C:
		}
	}
}

// CancelAfter cancels h with ReasonTimeout unless it ends within d. The
// returned function stops the timer.
func CancelAfter(h *activity.Handle, d time.Duration) (stop func() bool) {
	timer := time.AfterFunc(d, func() {
		h.Cancel(ReasonTimeout)
	})
	go func() {
		<-h.Result().Done()
		timer.Stop()
	}()
	return timer.Stop
}

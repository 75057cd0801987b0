// Command golaunch launches script-driven activities by intent, either once
// from the command line or from an HTTP control plane.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/buildinfo"
	"github.com/nomis52/golaunch/config"
	"github.com/nomis52/golaunch/launcher"
	"github.com/nomis52/golaunch/loader"
	"github.com/nomis52/golaunch/logging"
	"github.com/nomis52/golaunch/metrics"
	"github.com/nomis52/golaunch/present"
	"github.com/nomis52/golaunch/server"
)

const viewPollInterval = 20 * time.Millisecond

// errNotCompleted is returned by run when the activity did not complete.
var errNotCompleted = errors.New("activity did not complete")

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("golaunch"),
		kong.Description("Launch script-driven activities by intent."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadConfig returns the config at path, or defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		var cfg config.Config
		cfg.SetDefaults()
		return cfg, nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Run implements the run command.
func (c *RunCmd) Run() error {
	ctx, stop := signalContext()
	defer stop()
	return c.run(ctx, os.Stdout)
}

// RunOutput is what the run command prints.
type RunOutput struct {
	ID     string          `json:"id"`
	Intent string          `json:"intent"`
	Status activity.Status `json:"status"`
	Value  any             `json:"value,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (c *RunCmd) run(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	params := parseParams(c.Param)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	props := buildinfo.Get()
	logger.Info("golaunch started",
		"version", props.Version,
		"git_commit", props.GitCommit,
		"config_path", c.Config,
	)

	runtimeOpts := []activity.Option{}
	if cfg.Monitoring.VictoriaMetricsURL != "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		runtimeOpts = append(runtimeOpts, activity.WithMetricsRegistry(metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
			Logger:   logger.Logger,
		})))
	}

	views := present.NewMemory(present.WithLogger(logger.Logger))
	retriever := launcher.NewRetriever(launcher.RetrieverConfigFor(cfg.Retrieval))
	l, err := launcher.New(
		launcher.WithLogger(logger.Logger),
		launcher.WithLoader(loader.New(retriever, loader.WithLogger(logger.Logger))),
		launcher.WithPresenter(views),
		launcher.WithRuntimeOptions(runtimeOpts...),
	)
	if err != nil {
		return err
	}
	l.Intents().Replace(cfg.IntentMap())

	name := c.Target
	if _, err := l.Intents().Lookup(name); err != nil {
		// Not a configured intent: launch the locator directly.
		l.RegisterIntent(name, c.Target)
	}

	var opts []activity.StartOption
	if c.Container != "" {
		opts = append(opts, activity.WithContainer(c.Container))
	}
	h, err := l.IntentStart(name, params, opts...)
	if err != nil {
		return err
	}
	if c.Timeout > 0 {
		launcher.CancelAfter(h, c.Timeout)
	}

	go func() {
		select {
		case <-ctx.Done():
			h.Cancel("interrupted")
		case <-h.Result().Done():
		}
	}()

	if c.View {
		go printView(ctx, logger.Logger, views, h, out)
	}

	res, _ := h.Result().Await(context.Background())
	return writeResult(out, h, res)
}

func writeResult(out io.Writer, h *activity.Handle, res activity.Result) error {
	output := RunOutput{
		ID:     h.ID(),
		Intent: h.Intent(),
		Status: res.Status,
		Value:  res.Value,
		Reason: res.Reason,
	}
	if res.Err != nil {
		output.Error = res.Err.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}

	if !res.IsSuccess() {
		return fmt.Errorf("%w: %s", errNotCompleted, res.Status)
	}
	return nil
}

// printView prints the attached content once it is available.
func printView(ctx context.Context, logger *slog.Logger, views *present.Memory, h *activity.Handle, out io.Writer) {
	ticker := time.NewTicker(viewPollInterval)
	defer ticker.Stop()
	for {
		if view, ok := views.Get(h.ID()); ok {
			fmt.Fprintln(out, view.Content)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-h.Result().Done():
			logger.Debug("activity ended before its view was attached", "activity_id", h.ID())
			return
		case <-ticker.C:
		}
	}
}

// Run implements the serve command.
func (c *ServeCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	opts := []server.Option{server.WithLogger(logger.Logger)}
	if c.Schedule != "" {
		opts = append(opts, server.WithSchedules(c.Schedule))
	}
	srv, err := server.New(c.Config, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	return srv.Run(ctx)
}

// Run implements the validate command.
func (c *ValidateCmd) Run() error {
	cfg, err := config.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration validation successful: %s (%d intents, %d schedules)\n",
		c.Config, len(cfg.Intents), len(cfg.Schedules))
	return nil
}

// Run implements the version command.
func (c *VersionCmd) Run() error {
	fmt.Printf("golaunch %s\n", buildinfo.Get())
	return nil
}

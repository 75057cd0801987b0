// Package server provides the HTTP control plane of golaunch.
//
// The server owns one launcher for its whole lifetime. It registers the
// configured intents, launches them on request or on a cron schedule, and
// reports live and ended activities.
//
// # Endpoints
//
//   - GET /health - Liveness with the live activity count
//   - GET /status - Build info, uptime, counts and upcoming scheduled launches
//   - GET /intents - Registered intents
//   - PUT /intents/{name} - Registers an intent until the next reload
//   - POST /intents/{name}/start - Launches an activity, returns 202 with its id
//   - GET /activities - Live activities and recent history
//   - GET /activities/{id} - One activity
//   - POST /activities/{id}/cancel - Requests cancellation
//   - GET /activities/{id}/logs - Captured log records, console output included
//   - GET /activities/{id}/view - Declarative content of a live activity
//   - GET /config - Returns current configuration as YAML, redacted
//   - POST /reload - Reloads configuration from disk, reports intent and schedule counts
//   - GET /metrics - Prometheus metrics
//
// # Reloading
//
// Config-derived dependencies are swapped atomically on reload: the intent
// set, the retrievers and the cron schedules. Live activities keep running.
// Listen address, TLS, logging, history and metrics settings apply on
// restart.
//
// # Example
//
//	srv, err := server.New("/etc/golaunch/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/buildinfo"
	"github.com/nomis52/golaunch/config"
	"github.com/nomis52/golaunch/launcher"
	"github.com/nomis52/golaunch/loader"
	"github.com/nomis52/golaunch/logging"
	"github.com/nomis52/golaunch/metrics"
	"github.com/nomis52/golaunch/present"
	"github.com/nomis52/golaunch/server/cron"
	"github.com/nomis52/golaunch/server/handlers"
	"github.com/nomis52/golaunch/server/history"
	"github.com/nomis52/golaunch/server/types"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// serverDeps holds config-derived dependencies that are swapped atomically on reload.
type serverDeps struct {
	config    *config.Config
	retriever loader.Retriever
	cron      *cron.Manager
}

// Server is the HTTP server for golaunch.
type Server struct {
	configPath string
	logger     *slog.Logger
	props      types.ServerProperties
	deps       atomic.Pointer[serverDeps]

	// extraSchedules come from the command line and survive reloads.
	extraSchedules string

	launcher  *launcher.Launcher
	history   *history.Store
	collector *logging.LogCollector
	views     *present.Memory
	metrics   *metrics.ScrapeRegistry

	// reloadMu serializes reloads and guards the cron lifecycle.
	reloadMu   sync.Mutex
	runCtx     context.Context
	cronCancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the server's logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithSchedules adds schedules in the "intent1,intent2:cron;intent3:cron"
// form to the configured ones. Every intent must be in the config.
func WithSchedules(spec string) Option {
	return func(s *Server) error {
		if _, err := cron.ParseSchedules(spec, s.knownIntents(s.Config())); err != nil {
			return err
		}
		s.extraSchedules = spec
		return nil
	}
}

// New creates a Server for the config file at configPath.
func New(configPath string, opts ...Option) (*Server, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		configPath: configPath,
		logger:     slog.Default(),
	}
	// Options may read the initial config.
	s.deps.Store(&serverDeps{config: &cfg})
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	hostname, _ := os.Hostname()
	s.props = types.ServerProperties{
		Build:      buildinfo.Get(),
		StartedAt:  time.Now(),
		Hostname:   hostname,
		ConfigPath: configPath,
	}

	s.metrics, err = metrics.NewScrapeRegistry(metrics.WithPrefix(cfg.Monitoring.MetricsPrefix))
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}
	s.collector = logging.NewLogCollector(logging.WithMaxEntries(cfg.History.LogEntries))
	s.history = history.NewStore(cfg.History.Size, history.WithEvictionHook(s.collector.Remove))
	s.views = present.NewMemory(present.WithLogger(s.logger))

	ld := loader.New(loader.RetrieverFunc(s.retrieve), loader.WithLogger(s.logger))
	s.launcher, err = launcher.New(
		launcher.WithLogger(s.logger),
		launcher.WithLoader(ld),
		launcher.WithPresenter(s.views),
		launcher.WithRuntimeOptions(
			activity.WithLoggerHook(logging.NewCapturingLoggerHook(s.collector)),
			activity.WithMetricsRegistry(s.metrics),
			activity.WithObserver(s.history.Observe),
		),
	)
	if err != nil {
		return nil, err
	}

	if _, err := s.apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Launcher returns the launcher the server starts activities with.
func (s *Server) Launcher() *launcher.Launcher {
	return s.launcher
}

// Reload reads the config from disk and rebuilds server dependencies. On
// error the running configuration stays in place.
func (s *Server) Reload() (types.ReloadSummary, error) {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return types.ReloadSummary{}, err
	}
	schedules, err := s.apply(cfg)
	if err != nil {
		return types.ReloadSummary{}, err
	}
	summary := types.ReloadSummary{
		ConfigPath: s.configPath,
		Intents:    len(cfg.Intents),
		Schedules:  schedules,
	}
	s.logger.Info("configuration loaded", "config_path", s.configPath, "intents", summary.Intents, "schedules", summary.Schedules)
	return summary, nil
}

// apply swaps in cfg and returns the number of schedules it installed.
func (s *Server) apply(cfg config.Config) (int, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	schedules, err := s.schedules(cfg)
	if err != nil {
		return 0, err
	}
	mgr, err := cron.NewManager(schedules, s.launcher, s.logger)
	if err != nil {
		return 0, err
	}

	s.deps.Store(&serverDeps{
		config:    &cfg,
		retriever: launcher.NewRetriever(launcher.RetrieverConfigFor(cfg.Retrieval)),
		cron:      mgr,
	})
	s.launcher.Intents().Replace(cfg.IntentMap())

	if s.runCtx != nil {
		s.startCron(mgr)
	}
	return len(schedules), nil
}

// startCron replaces the running schedules with mgr. Callers hold reloadMu.
func (s *Server) startCron(mgr *cron.Manager) {
	if s.cronCancel != nil {
		s.cronCancel()
	}
	ctx, cancel := context.WithCancel(s.runCtx)
	s.cronCancel = cancel
	mgr.Start(ctx)
}

func (s *Server) schedules(cfg config.Config) ([]cron.Schedule, error) {
	schedules := make([]cron.Schedule, 0, len(cfg.Schedules))
	for _, sc := range cfg.Schedules {
		schedules = append(schedules, cron.Schedule{
			Intents:   []string{sc.Intent},
			Cron:      sc.Cron,
			Params:    sc.Params,
			Container: sc.Container,
			Timeout:   sc.Timeout,
		})
	}
	if s.extraSchedules != "" {
		extra, err := cron.ParseSchedules(s.extraSchedules, s.knownIntents(&cfg))
		if err != nil {
			return nil, fmt.Errorf("command line schedules: %w", err)
		}
		schedules = append(schedules, extra...)
	}
	return schedules, nil
}

func (s *Server) knownIntents(cfg *config.Config) map[string]bool {
	known := make(map[string]bool, len(cfg.Intents))
	for _, in := range cfg.Intents {
		known[in.Name] = true
	}
	return known
}

// retrieve routes through the retrievers of the current config.
func (s *Server) retrieve(ctx context.Context, locator string) (string, error) {
	return s.deps.Load().retriever.Retrieve(ctx, locator)
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.deps.Load().config
}

// Properties returns metadata about this server instance.
func (s *Server) Properties() types.ServerProperties {
	return s.props
}

// NextRuns returns the upcoming scheduled launches.
func (s *Server) NextRuns() []cron.NextRun {
	return s.deps.Load().cron.NextRuns()
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It then stops accepting requests, cancels live activities and waits a
// bounded time for them to end.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.Config()

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cfg := s.Config()

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	if cfg.TLS.Enabled() {
		certs, err := NewCertLoader(cfg.TLS.CertFile, cfg.TLS.KeyFile, s.logger)
		if err != nil {
			ln.Close()
			return err
		}
		if err := certs.Watch(ctx); err != nil {
			s.logger.Warn("certificate changes will not be picked up", "error", err)
		}
		ln = tls.NewListener(ln, &tls.Config{
			GetCertificate: certs.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		})
	}

	s.reloadMu.Lock()
	s.runCtx = ctx
	s.startCron(s.deps.Load().cron)
	s.reloadMu.Unlock()

	if err := watchFiles(ctx, s.logger, []string{s.configPath}, s.reloadOnChange); err != nil {
		s.logger.Warn("config changes will not be picked up", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"config_path", s.configPath,
			"tls", cfg.TLS.Enabled(),
			"next_run", s.deps.Load().cron.NextRun(),
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return errors.Join(
		httpServer.Shutdown(shutdownCtx),
		s.launcher.Shutdown(shutdownCtx),
	)
}

func (s *Server) reloadOnChange() {
	s.logger.Info("config file changed, reloading", "config_path", s.configPath)
	if _, err := s.Reload(); err != nil {
		s.logger.Error("failed to reload configuration", "error", err)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	rt := s.launcher.Runtime()
	intents := s.launcher.Intents()

	mux.Handle("GET /health", handlers.NewHealthHandler(rt))
	mux.Handle("GET /status", handlers.NewStatusHandler(s, intents, rt))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("POST /reload", handlers.NewReloadHandler(s.logger, s))
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.Handle("GET /intents", handlers.NewIntentsHandler(intents))
	mux.Handle("PUT /intents/{name}", handlers.NewRegisterIntentHandler(s.logger, intents))
	mux.Handle("POST /intents/{name}/start", handlers.NewStartHandler(s.logger, s.launcher))

	mux.Handle("GET /activities", handlers.NewActivitiesHandler(rt, s.history))
	mux.Handle("GET /activities/{id}", handlers.NewActivityHandler(rt, s.history))
	mux.Handle("POST /activities/{id}/cancel", handlers.NewCancelHandler(s.logger, rt, s.history))
	mux.Handle("GET /activities/{id}/logs", handlers.NewLogsHandler(s.collector, rt, s.history))
	mux.Handle("GET /activities/{id}/view", handlers.NewViewHandler(s.views))
}

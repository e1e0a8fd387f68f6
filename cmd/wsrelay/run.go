package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/wsrelay/pkg/cli"
	"mercator-hq/wsrelay/pkg/config"
	"mercator-hq/wsrelay/pkg/journal/recorder"
	"mercator-hq/wsrelay/pkg/journal/retention"
	"mercator-hq/wsrelay/pkg/journal/storage"
	"mercator-hq/wsrelay/pkg/relay"
	"mercator-hq/wsrelay/pkg/reload"
	"mercator-hq/wsrelay/pkg/rest"
	securityTLS "mercator-hq/wsrelay/pkg/security/tls"
	"mercator-hq/wsrelay/pkg/server"
	"mercator-hq/wsrelay/pkg/telemetry/health"
	"mercator-hq/wsrelay/pkg/telemetry/logging"
	"mercator-hq/wsrelay/pkg/telemetry/metrics"
	"mercator-hq/wsrelay/pkg/telemetry/tracing"
)

// healthCheckTimeout bounds each readiness check on the admin server.
const healthCheckTimeout = 2 * time.Second

var runFlags struct {
	port     int
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address, authenticates each WebSocket
client and relays its frames to the requested target. The process ID is
written to the configured PID file so that "wsrelay reload" can find it.
SIGHUP reloads the configuration; SIGINT and SIGTERM stop the server
gracefully.

Examples:
  # Start with default config
  wsrelay run

  # Start with custom config
  wsrelay run --config /etc/wsrelay/config.yaml

  # Override listen port
  wsrelay run --port 8443

  # Validate config and certificates without starting the server
  wsrelay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0, "override listen port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, fmt.Sprintf("failed to load config: %v", err))
	}

	// Flag overrides apply to the startup snapshot only.
	if runFlags.port != 0 {
		cfg.Server.Port = runFlags.port
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}

	log, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return cli.NewConfigError("logging", err.Error())
	}
	defer log.Close()
	logger := log.Logger
	slog.SetDefault(logger)

	store := config.NewStore(cfg, cfgFile)

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	collector := metrics.NewCollector(&cfg.Admin, prometheus.NewRegistry())
	collector.SetUsers(cfg.UserCount())

	tracer, err := tracing.New(&cfg.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	checker := health.New(healthCheckTimeout)
	checker.RegisterCheck("config", health.ConfigCheck(store))

	var sessionJournal relay.Recorder
	if cfg.Journal.Enabled && !runFlags.dryRun {
		rec, closeJournal, err := openJournal(ctx, &cfg.Journal, checker, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer closeJournal()
		sessionJournal = rec
	}

	engine := relay.NewEngine(relay.Options{
		Store:     store,
		Connector: securityTLS.NewConnector(),
		Metrics:   collector,
		Tracer:    tracer,
		Journal:   sessionJournal,
		Logger:    logger,
		TLS:       cfg.Server.EnableTLS,
	})

	var restHandler *rest.Forwarder
	if cfg.REST.Enabled {
		restHandler, err = rest.New(rest.Options{
			Store:   store,
			Metrics: collector,
			Tracer:  tracer,
			Logger:  logger,
		})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to create REST forwarder: %w", err))
		}
	}

	opts := server.Options{
		Store:   store,
		Engine:  engine,
		Metrics: collector,
		Logger:  logger,
	}
	// A nil *rest.Forwarder must stay a nil interface.
	if restHandler != nil {
		opts.REST = restHandler
	}
	srv, err := server.New(opts)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	checker.RegisterCheck("listener", health.ListeningCheck(srv.IsRunning))

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	sources, removePID, err := prepareReload(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer removePID()

	watcher := reload.NewWatcher(store, collector, logger, sources...)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		_ = watcher.Run(ctx)
	}()

	adminDone := make(chan struct{})
	if cfg.Admin.ListenAddress != "" {
		admin := server.NewAdminServer(cfg.Admin, collector, checker, server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		}, logger)
		go func() {
			defer close(adminDone)
			if err := admin.Start(ctx); err != nil {
				logger.Error("admin server failed", "error", err)
			}
		}()
	} else {
		close(adminDone)
	}

	printBanner(cmd, cfg)

	// Start returns after a graceful shutdown once ctx is cancelled.
	runErr := srv.Start(ctx)
	stop()
	<-watcherDone
	<-adminDone

	if runErr != nil {
		logger.Error("server stopped with error", "error", runErr)
		return cli.NewCommandError("run", runErr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// prepareReload subscribes to reload triggers and then writes the PID file.
// A SIGHUP sent as soon as the PID file exists is delivered as a reload.
func prepareReload(cfg *config.Config, logger *slog.Logger) ([]reload.Source, func(), error) {
	sources := []reload.Source{reload.NewSignalSource()}
	if cfg.Reload.WatchFile {
		sources = append(sources, reload.NewFileSource(cfgFile, cfg.Reload.Debounce, logger))
	}

	removePID, err := cli.WritePIDFile(cfg.Server.PIDFile)
	if err != nil {
		return nil, nil, err
	}
	return sources, removePID, nil
}

// openJournal opens the configured storage backend, starts the recorder and
// the retention scheduler, and registers a readiness check. The returned
// function flushes the recorder and closes storage.
func openJournal(ctx context.Context, cfg *config.JournalConfig, checker *health.Checker, logger *slog.Logger) (*recorder.Recorder, func(), error) {
	logger.Info("initializing session journal", "backend", cfg.Backend)

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal storage: %w", err)
	}
	checker.RegisterCheck("journal", health.PingCheck(store))

	// Drops are counted by the relay engine from Record's result.
	rec := recorder.New(store, recorder.FromConfig(cfg))

	scheduler := retention.NewScheduler(retention.NewPruner(store, &retention.Config{
		RetentionDays: cfg.Retention.Days,
		PruneSchedule: cfg.Retention.Schedule,
	}))
	if err := scheduler.Start(ctx); err != nil {
		logger.Warn("failed to start retention scheduler", "error", err)
	} else if next := scheduler.NextRun(); next != nil {
		logger.Debug("journal retention scheduled", "next_run", next)
	}

	return rec, func() {
		scheduler.Stop()
		if err := rec.Close(); err != nil {
			logger.Warn("journal recorder close failed", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("journal storage close failed", "error", err)
		}
	}, nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	scheme := "ws"
	if cfg.Server.EnableTLS {
		scheme = "wss"
	}
	fmt.Fprintf(out, "wsrelay v%s\n", Version)
	fmt.Fprintf(out, "✓ Configuration loaded from %s (%d users)\n", cfgFile, cfg.UserCount())
	fmt.Fprintf(out, "✓ Relay endpoint: %s://%s/\n", scheme, cfg.Server.ListenAddress())
	if cfg.REST.Enabled {
		fmt.Fprintf(out, "✓ REST endpoint: %s%s\n", cfg.Server.ListenAddress(), cfg.REST.Path)
	}
	if cfg.Admin.ListenAddress != "" {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Admin.ListenAddress, cfg.Admin.MetricsPath)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}

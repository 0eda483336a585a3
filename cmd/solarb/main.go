// Package main is the entry point for the Solana DEX Arbitrage Bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/nlemus/solarb/business/arbitrage"
	arbitrageApp "github.com/nlemus/solarb/business/arbitrage/app"
	arbitrageDI "github.com/nlemus/solarb/business/arbitrage/di"
	"github.com/nlemus/solarb/business/market"
	"github.com/nlemus/solarb/internal/apm"
	"github.com/nlemus/solarb/internal/config"
	"github.com/nlemus/solarb/internal/health"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/metrics"
	"github.com/nlemus/solarb/internal/monolith"
	"github.com/nlemus/solarb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	dryRun := flag.Bool("dry-run", true, "Simulate trade execution instead of submitting transactions")
	memoryOnly := flag.Bool("memory-only", false, "Disable the Postgres backup store")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	debug := flag.Bool("debug", false, "Shorthand for -log-level=debug")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *debug {
		*logLevel = "debug"
	}

	if *showVersion {
		fmt.Printf("solarb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	// Run application
	if err := run(ctx, *configPath, *logLevel, tuiMode, *dryRun, *memoryOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, logLevelOverride string, tuiMode, dryRun, memoryOnly bool) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply runtime overrides
	cfg.Arbitrage.TUIMode = tuiMode
	if flagPassed("dry-run") {
		cfg.Arbitrage.DryRun = dryRun
	}
	if memoryOnly {
		cfg.Database.Enabled = false
	}
	if logLevelOverride != "" {
		cfg.App.LogLevel = logLevelOverride
	}

	// Setup logger (only log to stderr in CLI mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, route warnings and errors to the dashboard log pane
		log = logger.New(ui.LogWriter{Level: "warn"}, logger.LevelWarn, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting Solana DEX Arbitrage Bot",
			"version", version,
			"environment", cfg.App.Environment,
			"dry_run", cfg.Arbitrage.DryRun,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		// Set service name env var for OTEL
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		// Initialize tracing with Zipkin (local dev friendly)
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		// Initialize metrics with Prometheus
		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{},    // Must be first - provides DEX adapters
		&arbitrage.Module{}, // Depends on market for pool data
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		// TUI mode: Start modules in background so TUI shows immediately
		startFunc := func() error {
			ui.Send(ui.StartupMsg{Step: "config", Status: "connected"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}

			pipeline := arbitrageDI.GetPipeline(mono.Services())
			go func() {
				if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					ui.Send(ui.ErrorMsg{Error: err})
				}
			}()
			return nil
		}
		stopFunc := func() {
			closeBackup(mono)
		}
		return runTUI(ctx, startFunc, stopFunc)
	}

	// CLI mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	defer closeBackup(mono)

	pipeline := arbitrageDI.GetPipeline(mono.Services())
	return runCLI(ctx, pipeline, log)
}

// flagPassed reports whether a flag was set explicitly on the command line.
func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// closeBackup closes the Postgres backup store if one was opened.
func closeBackup(mono monolith.Monolith) {
	if backup := arbitrageDI.GetBackupStore(mono.Services()); backup != nil {
		backup.Close()
	}
}

func runCLI(ctx context.Context, pipeline *arbitrageApp.Pipeline, log *logger.Logger) error {
	log.Info(ctx, "all modules started, beginning arbitrage pipeline")

	err := pipeline.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, startFunc func() error, stopFunc func()) error {
	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	// Run bot logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// Start modules and pipeline (connections happen here, TUI shows progress)
		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		// Wait for context cancellation
		<-ctx.Done()

		stopFunc()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Check for bot errors
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

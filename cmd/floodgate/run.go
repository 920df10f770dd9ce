package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"floodgate-hq/floodgate/pkg/cli"
	"floodgate-hq/floodgate/pkg/config"
	"floodgate-hq/floodgate/pkg/idempotency"
	"floodgate-hq/floodgate/pkg/ratelimit"
	"floodgate-hq/floodgate/pkg/server"
	"floodgate-hq/floodgate/pkg/store"
	"floodgate-hq/floodgate/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Floodgate server",
	Long: `Start the Floodgate server with the specified configuration.

The server evaluates rate limit checks against the configured counter store
and replays idempotent responses for repeated request keys.

Examples:
  # Start with default config
  floodgate run

  # Start with custom config
  floodgate run --config /etc/floodgate/config.yaml

  # Override listen address
  floodgate run --listen 0.0.0.0:8080

  # Validate config without starting the server
  floodgate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Floodgate v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Counter store
	backend, err := store.New(cfg.Store)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create store: %w", err))
	}
	defer backend.Close()
	fmt.Printf("✓ Counter store initialized (%s)\n", cfg.Store.Backend)

	// Expired-entry sweeper for backends without native expiry
	if sweepable, ok := backend.(store.Sweepable); ok && cfg.Store.SweepSchedule != "" {
		sweeper := store.NewSweeper(sweepable, cfg.Store.SweepSchedule, logger)
		if err := sweeper.Start(ctx); err != nil {
			logger.Warn("failed to start store sweeper", "error", err)
		} else {
			defer sweeper.Stop()
		}
	}

	// Rate limit evaluator
	rules, err := ratelimit.NewRulesetFromConfig(&cfg.RateLimit)
	if err != nil {
		return cli.NewConfigError("rate_limit", err.Error())
	}

	registry := prometheus.NewRegistry()
	metrics := ratelimit.NewMetrics(registry)

	evaluator := ratelimit.NewEvaluator(backend, rules, ratelimit.EvaluatorConfig{
		FailurePolicy: ratelimit.FailurePolicy(cfg.RateLimit.FailurePolicy),
		Metrics:       metrics,
		Logger:        logger,
	})
	fmt.Printf("✓ Rate limiter initialized (%d rules)\n", rules.Len())

	// Idempotency cache
	var cache *idempotency.Cache
	if cfg.Idempotency.Enabled {
		cache = idempotency.NewCache(backend,
			idempotency.WithTTL(cfg.Idempotency.TTL),
			idempotency.WithKeyPrefix(cfg.Idempotency.KeyPrefix),
			idempotency.WithLogger(logger),
			idempotency.WithObserver(metrics),
		)
		fmt.Println("✓ Idempotency cache enabled")
	}

	// Config file watcher. Rules are immutable at runtime, so a change only
	// logs that a restart is required.
	watcher, err := config.NewWatcher(cfgFile, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		go func() {
			err := watcher.Watch(ctx, func() {
				logger.Warn("configuration file changed, restart required to apply",
					"path", cfgFile)
			})
			if err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	// HTTP server
	srv := server.NewServer(cfg, server.Options{
		Evaluator: evaluator,
		Cache:     cache,
		Registry:  registry,
		Logger:    logger,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

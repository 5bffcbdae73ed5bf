// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/store"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	flags := pflag.NewFlagSet("marquee", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	logLevel := flags.String("log-level", "", "log level override (trace, debug, info, warn, error)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	if *logLevel != "" {
		logging.SetLevelString(*logLevel)
	}
	logging.SetLogger(logging.With().Str("service", "marquee").Logger())
	logger := logging.Logger()

	logging.Debug().
		Str("config_path", *configPath).
		Str("log_level", cfg.Logging.Level).
		Str("log_level_flag", *logLevel).
		Msg("Configuration loaded")

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Bool("events", cfg.Events.Enabled).
		Int("port", cfg.Server.Port).
		Msg("Starting Marquee with supervisor tree")

	st, err := store.Open(store.Config{
		Path:       cfg.Store.Path,
		InMemory:   cfg.Store.InMemory,
		SyncWrites: cfg.Store.SyncWrites,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	engine, err := initEngine(cfg, st, logger)
	if err != nil {
		logging.Err(err).Msg("Failed to initialize profiler")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventComponents, err := initEvents(ctx, cfg, engine, st, logger)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize event bus")
		return
	}
	defer func() {
		if err := eventComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// This bridges zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	handler := api.NewHandler(engine, st, logger)
	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(handler, api.RouterConfig{
			RateLimitRequests: cfg.Server.RateLimitReqs,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
			RateLimitDisabled: cfg.Server.RateLimitDisabled,

			SlowRequestThreshold: cfg.Server.SlowRequestThreshold,
			PerformanceWindow:    cfg.Server.PerformanceWindow,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddEngineService(services.NewProfilerService(engine))
	if eventComponents != nil {
		tree.AddMessagingService(services.NewEventRouterService(eventComponents.Factory, cfg.Events.CloseTimeout))
		logging.Info().Msg("Event intake router added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	stop()
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Marquee stopped gracefully")
}

// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor provides process supervision for Marquee using suture v4.

Services are organized into three layers so that each restarts independently:

	RootSupervisor ("marquee")
	├── EngineSupervisor ("engine-layer")
	│   └── ProfilerService
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventRouterService (if events.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's failure decay and backoff.
Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from the logging package.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logging.Logger()), supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    FailureDecay:     cfg.Supervisor.FailureDecay,
	    FailureBackoff:   cfg.Supervisor.FailureBackoff,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddEngineService(services.NewProfilerService(engine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor tree stopped")
	}
*/
package supervisor

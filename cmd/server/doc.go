// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package main is the entry point for the Marquee server.

Marquee keeps a continuously recomputed profile of a recorder's guide:
for every airing, how likely the household is to want it recorded, which
favorite or learned trend is responsible, and which airings must be kept.
The profile is served over HTTP and pushed to subscribers over the event
bus.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("marquee")
	├── EngineSupervisor ("engine-layer")
	│   └── Profiler coordinator
	├── MessagingSupervisor ("messaging-layer")
	│   └── Event intake router (when EVENTS_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file, then environment
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Store: BadgerDB object store for shows, airings, agents and history
 4. Engine: profiler with trend estimator and worker pool
 5. Events (optional): Watermill bus, notifier and intake router
 6. HTTP: chi router with rate limiting and Prometheus metrics

# Flags

	--config      path to a YAML config file (overrides CONFIG_PATH)
	--log-level   overrides LOG_LEVEL

# Example Usage

In-process bus with the HTTP API only:

	export STORE_PATH=/var/lib/marquee
	./marquee

With NATS JetStream intake:

	export EVENTS_ENABLED=true
	export NATS_ENABLED=true
	export NATS_URL=nats://nats:4222
	export NATS_JETSTREAM=true
	./marquee

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server, the intake router and the coordinator, after which the bus and
the store are closed.
*/
package main

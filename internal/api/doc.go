// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api provides the HTTP REST API for Marquee.

The API reads the profiler's published snapshot for queries and forwards
favorite edits and viewing events to the engine. Every response uses the
models.APIResponse envelope and carries the snapshot version it was read
from in metadata.snapshot_version.

Endpoints (all under /api/v1):

	GET    /health/live                  liveness
	GET    /health/ready                 503 until the first cycle publishes
	GET    /status                       prepped, last cycle, queue length, set sizes
	POST   /recompute                    {"required": bool}

	GET    /airings/{id}                 probability, cause, set membership
	GET    /airings/{a}/conflict/{b}     which airing to keep
	GET    /airings/{a}/same-favorite/{b}

	GET    /favorites                    linearized priority order
	POST   /favorites                    create (existing rule is returned)
	PUT    /favorites/{id}               replace rule
	DELETE /favorites/{id}
	POST   /favorites/{id}/enable
	POST   /favorites/{id}/disable
	POST   /favorites/{id}/priority      {"bottom_id": n}
	PATCH  /favorites/{id}/options       padding, keep_at_most, retention flags
	POST   /favorites/fix                drop dangling priority edges

	POST   /events/watch                 models.WatchEvent
	DELETE /events/watch/{id}
	POST   /events/waste                 models.WasteEvent
	DELETE /events/waste/{id}
	POST   /events/swap                  models.SwapEvent

/metrics serves Prometheus collectors from the default registry.

Errors map as follows: unknown records 404, invalid rules and requests 400,
rule collisions 409, everything else 500.
*/
package api

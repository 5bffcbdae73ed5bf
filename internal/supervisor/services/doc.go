// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package services provides suture.Service wrappers for Marquee components.

Each wrapper translates a component lifecycle (Run, ListenAndServe,
Run/Close) into suture's context-aware Serve and implements fmt.Stringer
so supervisor events name the service.

  - ProfilerService: the profiler job coordinator (engine layer)
  - EventRouterService: the Watermill intake router, rebuilt on every
    restart (messaging layer)
  - HTTPServerService: the chi API server with graceful shutdown (api layer)
*/
package services

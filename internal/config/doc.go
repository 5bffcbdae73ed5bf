// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package config loads Marquee configuration with koanf.

Three layers are merged, later layers winning:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file: the --config flag, else CONFIG_PATH, else the
    first of DefaultConfigPaths that exists
 3. Environment variables listed in envMappings

Example config.yaml:

	profiler:
	  lookahead: 336h
	  limited_init: true
	  disallowed_titles: ["Paid Programming", "Infomercial"]
	store:
	  path: /data/marquee
	events:
	  nats_enabled: true
	  nats_url: nats://nats:4222
	  jetstream: true
	server:
	  port: 8642
	logging:
	  level: debug
	  format: console

Environment examples: PROFILER_LOOKAHEAD=72h, STORE_IN_MEMORY=true,
NATS_ENABLED=true, HTTP_PORT=9000, LOG_LEVEL=debug. List values such as
PROFILER_DISALLOWED_TITLES are comma-separated.

Load validates the merged result and fails fast; every validation error
wraps ErrInvalidConfig.
*/
package config

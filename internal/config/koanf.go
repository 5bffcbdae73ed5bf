// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Profiler: ProfilerConfig{
			Lookahead:           14 * 24 * time.Hour,
			Lookbehind:          time.Hour,
			IndexOptimization:   true,
			LimitedInit:         true,
			WorkerOverride:      0,
			CPUControl:          true,
			CPUControlMinAgents: 50,
			SleepPeriod:         30 * time.Millisecond,
			CycleCeiling:        30 * time.Minute,
			IdleWait:            time.Hour,
			BootstrapPoll:       250 * time.Millisecond,
			ProgressPoll:        time.Minute,
			MinProbability:      0,
			DefaultStartPad:     0,
			DefaultStopPad:      0,
			DisallowedTitles:    []string{"Paid Programming"},
		},
		Store: StoreConfig{
			Path:       "/data/marquee",
			InMemory:   false,
			SyncWrites: false,
		},
		Events: EventsConfig{
			Enabled:                 true,
			TopicPrefix:             "marquee",
			NATSEnabled:             false, // In-process bus unless a broker is configured
			NATSURL:                 "nats://127.0.0.1:4222",
			JetStream:               false,
			StreamName:              "MARQUEE",
			DurableName:             "marquee-intake",
			QueueGroup:              "marquee",
			SubscribersCount:        1,
			MaxDeliver:              5,
			MaxAge:                  24 * time.Hour,
			RetryMaxRetries:         3,
			RetryInitialInterval:    100 * time.Millisecond,
			CloseTimeout:            10 * time.Second,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          10 * time.Second,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8642,
			Timeout:           30 * time.Second,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,

			SlowRequestThreshold: time.Second,
			PerformanceWindow:    1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence. An empty
// configPath searches CONFIG_PATH and DefaultConfigPaths.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path if found, empty string otherwise.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are keys whose env values are comma-separated lists.
var sliceConfigPaths = []string{
	"profiler.disallowed_titles",
}

// processSliceFields converts comma-separated strings to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		// An empty value clears the list.
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf keys.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"profiler_lookahead":              "profiler.lookahead",
	"profiler_lookbehind":             "profiler.lookbehind",
	"profiler_index_optimization":     "profiler.index_optimization",
	"profiler_limited_init":           "profiler.limited_init",
	"profiler_worker_override":        "profiler.worker_override",
	"profiler_cpu_control":            "profiler.cpu_control",
	"profiler_cpu_control_min_agents": "profiler.cpu_control_min_agents",
	"profiler_sleep_period":           "profiler.sleep_period",
	"profiler_cycle_ceiling":          "profiler.cycle_ceiling",
	"profiler_idle_wait":              "profiler.idle_wait",
	"profiler_bootstrap_poll":         "profiler.bootstrap_poll",
	"profiler_progress_poll":          "profiler.progress_poll",
	"profiler_min_probability":        "profiler.min_probability",
	"profiler_default_start_pad":      "profiler.default_start_pad",
	"profiler_default_stop_pad":       "profiler.default_stop_pad",
	"profiler_disallowed_titles":      "profiler.disallowed_titles",

	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_sync_writes": "store.sync_writes",

	"events_enabled":                   "events.enabled",
	"events_topic_prefix":              "events.topic_prefix",
	"events_retry_max_retries":         "events.retry_max_retries",
	"events_retry_initial_interval":    "events.retry_initial_interval",
	"events_close_timeout":             "events.close_timeout",
	"events_breaker_failure_threshold": "events.breaker_failure_threshold",
	"events_breaker_timeout":           "events.breaker_timeout",
	"nats_enabled":                     "events.nats_enabled",
	"nats_url":                         "events.nats_url",
	"nats_jetstream":                   "events.jetstream",
	"nats_stream_name":                 "events.stream_name",
	"nats_durable_name":                "events.durable_name",
	"nats_queue_group":                 "events.queue_group",
	"nats_subscribers":                 "events.subscribers_count",
	"nats_max_deliver":                 "events.max_deliver",
	"nats_max_age":                     "events.max_age",

	"http_host":                   "server.host",
	"http_port":                   "server.port",
	"http_timeout":                "server.timeout",
	"rate_limit_requests":         "server.rate_limit_reqs",
	"rate_limit_window":           "server.rate_limit_window",
	"disable_rate_limit":          "server.rate_limit_disabled",
	"http_slow_request_threshold": "server.slow_request_threshold",
	"http_performance_window":     "server.performance_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable to its koanf key. It
// returns "" for unknown variables, which koanf skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

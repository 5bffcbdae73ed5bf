// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"strings"
)

// maxWorkers mirrors the evaluator pool cap.
const maxWorkers = 64

// Validate checks that configuration values are in range.
func (c *Config) Validate() error {
	if err := c.validateProfiler(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateProfiler() error {
	p := &c.Profiler
	switch {
	case p.Lookahead <= 0:
		return invalid("PROFILER_LOOKAHEAD must be positive, got %v", p.Lookahead)
	case p.Lookbehind < 0:
		return invalid("PROFILER_LOOKBEHIND must be non-negative, got %v", p.Lookbehind)
	case p.WorkerOverride < 0 || p.WorkerOverride > maxWorkers:
		return invalid("PROFILER_WORKER_OVERRIDE must be between 0 and %d, got %d", maxWorkers, p.WorkerOverride)
	case p.CPUControlMinAgents < 0:
		return invalid("PROFILER_CPU_CONTROL_MIN_AGENTS must be non-negative, got %d", p.CPUControlMinAgents)
	case p.CPUControl && p.SleepPeriod <= 0:
		return invalid("PROFILER_SLEEP_PERIOD must be positive when cpu control is on, got %v", p.SleepPeriod)
	case p.CycleCeiling <= 0:
		return invalid("PROFILER_CYCLE_CEILING must be positive, got %v", p.CycleCeiling)
	case p.IdleWait <= 0:
		return invalid("PROFILER_IDLE_WAIT must be positive, got %v", p.IdleWait)
	case p.BootstrapPoll <= 0 || p.ProgressPoll <= 0:
		return invalid("PROFILER_BOOTSTRAP_POLL and PROFILER_PROGRESS_POLL must be positive")
	case p.MinProbability < 0 || p.MinProbability > 1:
		return invalid("PROFILER_MIN_PROBABILITY must be between 0 and 1, got %v", p.MinProbability)
	case p.DefaultStartPad < 0 || p.DefaultStopPad < 0:
		return invalid("default start and stop pads must be non-negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return invalid("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateEvents() error {
	e := &c.Events
	if !e.Enabled {
		return nil
	}
	if strings.TrimSpace(e.TopicPrefix) == "" {
		return invalid("EVENTS_TOPIC_PREFIX is required when events are enabled")
	}
	if e.RetryMaxRetries < 0 {
		return invalid("EVENTS_RETRY_MAX_RETRIES must be non-negative, got %d", e.RetryMaxRetries)
	}
	if e.BreakerFailureThreshold == 0 {
		return invalid("EVENTS_BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if !e.NATSEnabled {
		return nil
	}
	if err := validateNATSURL(e.NATSURL); err != nil {
		return invalid("NATS_URL is invalid: %v", err)
	}
	if e.SubscribersCount < 1 {
		return invalid("NATS_SUBSCRIBERS must be at least 1, got %d", e.SubscribersCount)
	}
	if e.JetStream && (e.StreamName == "" || e.DurableName == "") {
		return invalid("NATS_STREAM_NAME and NATS_DURABLE_NAME are required with JetStream")
	}
	return nil
}

func (c *Config) validateServer() error {
	s := &c.Server
	if s.Port < 1 || s.Port > 65535 {
		return invalid("HTTP_PORT must be between 1 and 65535, got %d", s.Port)
	}
	if s.Timeout <= 0 {
		return invalid("HTTP_TIMEOUT must be positive, got %v", s.Timeout)
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs <= 0 || s.RateLimitWindow <= 0) {
		return invalid("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT=true")
	}
	if s.SlowRequestThreshold < 0 {
		return invalid("HTTP_SLOW_REQUEST_THRESHOLD must be non-negative, got %v", s.SlowRequestThreshold)
	}
	if s.PerformanceWindow < 1 {
		return invalid("HTTP_PERFORMANCE_WINDOW must be at least 1, got %d", s.PerformanceWindow)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := &c.Supervisor
	if s.FailureThreshold < 0 || s.FailureDecay < 0 || s.FailureBackoff < 0 || s.ShutdownTimeout < 0 {
		return invalid("supervisor settings must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return invalid("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return invalid("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

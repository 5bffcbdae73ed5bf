// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Profiler   ProfilerConfig   `koanf:"profiler"`
	Store      StoreConfig      `koanf:"store"`
	Events     EventsConfig     `koanf:"events"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ProfilerConfig tunes the recompute engine.
type ProfilerConfig struct {
	Lookahead           time.Duration `koanf:"lookahead"`
	Lookbehind          time.Duration `koanf:"lookbehind"`
	IndexOptimization   bool          `koanf:"index_optimization"`
	LimitedInit         bool          `koanf:"limited_init"`
	WorkerOverride      int           `koanf:"worker_override"` // 0 = size from agent count and CPUs
	CPUControl          bool          `koanf:"cpu_control"`
	CPUControlMinAgents int           `koanf:"cpu_control_min_agents"`
	SleepPeriod         time.Duration `koanf:"sleep_period"`
	CycleCeiling        time.Duration `koanf:"cycle_ceiling"`
	IdleWait            time.Duration `koanf:"idle_wait"`
	BootstrapPoll       time.Duration `koanf:"bootstrap_poll"`
	ProgressPoll        time.Duration `koanf:"progress_poll"`
	MinProbability      float64       `koanf:"min_probability"`
	DefaultStartPad     time.Duration `koanf:"default_start_pad"`
	DefaultStopPad      time.Duration `koanf:"default_stop_pad"`
	DisallowedTitles    []string      `koanf:"disallowed_titles"`
}

// StoreConfig locates the Badger object store.
type StoreConfig struct {
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// EventsConfig configures the Watermill bus. With NATSEnabled false the
// bus is in-process and only the HTTP API feeds the engine.
type EventsConfig struct {
	Enabled              bool          `koanf:"enabled"`
	TopicPrefix          string        `koanf:"topic_prefix"`
	NATSEnabled          bool          `koanf:"nats_enabled"`
	NATSURL              string        `koanf:"nats_url"`
	JetStream            bool          `koanf:"jetstream"`
	StreamName           string        `koanf:"stream_name"`
	DurableName          string        `koanf:"durable_name"`
	QueueGroup           string        `koanf:"queue_group"`
	SubscribersCount     int           `koanf:"subscribers_count"`
	MaxDeliver           int           `koanf:"max_deliver"`
	MaxAge               time.Duration `koanf:"max_age"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`

	// Notification circuit breaker
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	SlowRequestThreshold time.Duration `koanf:"slow_request_threshold"` // 0 = never log
	PerformanceWindow    int           `koanf:"performance_window"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

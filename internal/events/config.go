// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"fmt"
	"strings"
	"time"
)

// Intake topic suffixes.
const (
	TopicWatch     = "watch"
	TopicWaste     = "waste"
	TopicSwap      = "swap"
	TopicRecompute = "recompute"
	TopicCatalog   = "catalog"
)

// Notification topic suffixes.
const (
	TopicSyncLove        = "sync.love"
	TopicSyncProbability = "sync.probability"
	TopicSyncCause       = "sync.cause"
	TopicSyncMustSee     = "sync.mustsee"
	TopicSchedulerKick   = "scheduler.kick"
)

// Config holds event bus settings.
type Config struct {
	// TopicPrefix is prepended to every topic, separated by a dot.
	TopicPrefix string

	// NATSEnabled selects NATS instead of the in-process bus.
	NATSEnabled bool
	NATS        NATSConfig

	// Router settings.
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// OutputBuffer is the per-subscriber buffer of the in-process bus.
	OutputBuffer int64

	Breaker CircuitBreakerConfig
}

// NATSConfig holds the NATS connection and consumer settings.
type NATSConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration

	// JetStream enables durable delivery. The stream is created or
	// updated at startup and covers every topic under the prefix.
	JetStream       bool
	StreamName      string
	DurableName     string
	MaxDeliver      int
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Consecutive failures before opening
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TopicPrefix: "marquee",
		NATSEnabled: false,
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			MaxReconnects:    -1, // Unlimited
			ReconnectWait:    2 * time.Second,
			ReconnectBuffer:  8 * 1024 * 1024,
			QueueGroup:       "marquee",
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     10 * time.Second,
			JetStream:        false,
			StreamName:       "MARQUEE",
			DurableName:      "marquee-intake",
			MaxDeliver:       5,
			MaxAge:           24 * time.Hour,
			DuplicateWindow:  2 * time.Minute,
		},
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		OutputBuffer:         256,
		Breaker: CircuitBreakerConfig{
			Name:             "event-notifier",
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.TopicPrefix == "" || strings.ContainsAny(c.TopicPrefix, " *>") {
		return fmt.Errorf("%w: topic prefix %q", ErrInvalidConfig, c.TopicPrefix)
	}
	if c.RetryMaxRetries < 0 || c.RetryMultiplier < 1 {
		return fmt.Errorf("%w: retry settings", ErrInvalidConfig)
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("%w: breaker failure threshold must be positive", ErrInvalidConfig)
	}
	if c.NATSEnabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("%w: nats url is required", ErrInvalidConfig)
		}
		if c.NATS.SubscribersCount < 1 {
			return fmt.Errorf("%w: nats subscribers must be at least 1", ErrInvalidConfig)
		}
		if c.NATS.JetStream && c.NATS.StreamName == "" {
			return fmt.Errorf("%w: jetstream requires a stream name", ErrInvalidConfig)
		}
	}
	return nil
}

// Topic returns the full topic for a suffix.
func (c *Config) Topic(suffix string) string {
	return c.TopicPrefix + "." + suffix
}

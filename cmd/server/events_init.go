// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/profiler"
	"github.com/tomtom215/marquee/internal/store"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// EventComponents holds the bus and what was built on it.
type EventComponents struct {
	Bus      *events.Bus
	Notifier *events.Notifier
	Factory  services.RouterFactory
}

// Close releases the bus. Safe on nil.
func (c *EventComponents) Close() error {
	if c == nil || c.Bus == nil {
		return nil
	}
	return c.Bus.Close()
}

// buildEventsConfig maps the loaded events settings onto the bus config.
func buildEventsConfig(cfg *config.EventsConfig) events.Config {
	ec := events.DefaultConfig()
	ec.TopicPrefix = cfg.TopicPrefix
	ec.NATSEnabled = cfg.NATSEnabled
	ec.NATS.URL = cfg.NATSURL
	ec.NATS.JetStream = cfg.JetStream
	ec.NATS.StreamName = cfg.StreamName
	ec.NATS.DurableName = cfg.DurableName
	ec.NATS.QueueGroup = cfg.QueueGroup
	ec.NATS.SubscribersCount = cfg.SubscribersCount
	ec.NATS.MaxDeliver = cfg.MaxDeliver
	ec.NATS.MaxAge = cfg.MaxAge
	ec.RetryMaxRetries = cfg.RetryMaxRetries
	ec.RetryInitialInterval = cfg.RetryInitialInterval
	ec.CloseTimeout = cfg.CloseTimeout
	ec.Breaker.FailureThreshold = cfg.BreakerFailureThreshold
	ec.Breaker.Timeout = cfg.BreakerTimeout
	return ec
}

// initEvents connects the bus and attaches the notifier to the engine as
// both listener and scheduler. Returns nil, nil when events are disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initEvents(ctx context.Context, cfg *config.Config, engine *profiler.Engine, st *store.BadgerStore, logger zerolog.Logger) (*EventComponents, error) {
	if !cfg.Events.Enabled {
		logger.Info().Msg("Event bus disabled (EVENTS_ENABLED=false)")
		return nil, nil
	}

	bus, err := events.NewBus(ctx, buildEventsConfig(&cfg.Events), logger)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}

	notifier := events.NewNotifier(bus, logger)
	notifier.SetSource(engine)
	engine.AddListener(notifier)
	engine.SetScheduler(notifier)

	// A Watermill router cannot be run twice, so every supervisor restart
	// builds a fresh one on the same bus.
	factory := func() (services.EventRouter, error) {
		return events.NewRouter(bus, events.NewIntake(engine, st, logger), logger)
	}

	logger.Info().
		Bool("nats", cfg.Events.NATSEnabled).
		Bool("jetstream", cfg.Events.JetStream).
		Str("prefix", cfg.Events.TopicPrefix).
		Msg("Event bus initialized")

	return &EventComponents{Bus: bus, Notifier: notifier, Factory: factory}, nil
}

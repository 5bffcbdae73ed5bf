// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
)

// Router consumes the intake topics and applies them through an Intake.
type Router struct {
	router *message.Router
	logger zerolog.Logger
}

// NewRouter creates a Watermill router with the intake handlers
// registered. Middleware, outer to inner:
//  1. Recoverer - panics become errors
//  2. Retry - exponential backoff for transient failures
//  3. permanent - acknowledges messages that can never succeed
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(bus *Bus, intake *Intake, logger zerolog.Logger) (*Router, error) {
	cfg := bus.Config()
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wmLogger,
	}
	wmRouter.AddMiddleware(retry.Middleware)
	wmRouter.AddMiddleware(ackPermanent(logger))

	handlers := []struct {
		suffix string
		fn     message.NoPublishHandlerFunc
	}{
		{TopicWatch, intake.HandleWatch},
		{TopicWaste, intake.HandleWaste},
		{TopicSwap, intake.HandleSwap},
		{TopicRecompute, intake.HandleRecompute},
		{TopicCatalog, intake.HandleCatalog},
	}
	for _, h := range handlers {
		topic := cfg.Topic(h.suffix)
		wmRouter.AddConsumerHandler("intake-"+h.suffix, topic, bus.Subscriber, observed(topic, h.fn))
	}

	return &Router{router: wmRouter, logger: logger}, nil
}

// ackPermanent drops messages whose handler returned a PermanentError.
func ackPermanent(logger zerolog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			out, err := h(msg)
			if err != nil && IsPermanentError(err) {
				logger.Warn().
					Err(err).
					Str("message_uuid", msg.UUID).
					Str("topic", message.SubscribeTopicFromCtx(msg.Context())).
					Msg("Dropping message that cannot be applied")
				return out, nil
			}
			return out, err
		}
	}
}

// Run processes messages until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to the close timeout for in-flight
// messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"fmt"
	"time"
)

// EventRouter matches the lifecycle of *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router. A Watermill router cannot be run
// twice, so every restart gets a new one.
type RouterFactory func() (EventRouter, error)

// EventRouterService runs the event intake router under supervision.
type EventRouterService struct {
	factory         RouterFactory
	shutdownTimeout time.Duration
	name            string
}

// NewEventRouterService creates a new event router service wrapper.
func NewEventRouterService(factory RouterFactory, shutdownTimeout time.Duration) *EventRouterService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventRouterService{
		factory:         factory,
		shutdownTimeout: shutdownTimeout,
		name:            "event-router",
	}
}

// Serve implements suture.Service. A router that stops on its own is
// reported as an error so the supervisor restarts it.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		_ = router.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("event router failed: %w", err)
		}
		return fmt.Errorf("event router stopped unexpectedly")

	case <-ctx.Done():
		closed := make(chan error, 1)
		go func() { closed <- router.Close() }()

		select {
		case err := <-closed:
			if err != nil {
				return fmt.Errorf("event router close failed: %w", err)
			}
		case <-time.After(s.shutdownTimeout):
			return fmt.Errorf("event router close timed out after %v", s.shutdownTimeout)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for logging.
func (s *EventRouterService) String() string {
	return s.name
}

// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"fmt"
)

// ProfilerRunner is the job coordinator loop. *profiler.Engine satisfies it.
type ProfilerRunner interface {
	Run(ctx context.Context) error
}

// ProfilerService runs the profiler coordinator under supervision.
//
// The coordinator already recovers panics from single iterations; an
// error escaping Run means the loop itself failed and suture restarts it.
// The published snapshot survives restarts, so queries keep answering.
type ProfilerService struct {
	runner ProfilerRunner
	name   string
}

// NewProfilerService creates a new profiler service wrapper.
func NewProfilerService(runner ProfilerRunner) *ProfilerService {
	return &ProfilerService{runner: runner, name: "profiler-coordinator"}
}

// Serve implements suture.Service.
func (s *ProfilerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("profiler coordinator: %w", err)
	}
}

// String implements fmt.Stringer for logging.
func (s *ProfilerService) String() string {
	return s.name
}

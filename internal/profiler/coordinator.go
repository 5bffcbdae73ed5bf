// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// JobKind tags a coordinator signal. Watch and waste kinds are applied
// incrementally; every other kind requests a full cycle.
type JobKind int

const (
	JobWatchMark JobKind = iota
	JobWatchReal
	JobWatchClear
	JobStandard
	JobRequired
	JobLove
	JobLoveClear
	JobWasted
)

// String returns the metric label of the kind.
func (k JobKind) String() string {
	switch k {
	case JobWatchMark:
		return "watch_mark"
	case JobWatchReal:
		return "watch_real"
	case JobWatchClear:
		return "watch_clear"
	case JobStandard:
		return "standard"
	case JobRequired:
		return "required"
	case JobLove:
		return "love"
	case JobLoveClear:
		return "love_clear"
	case JobWasted:
		return "wasted"
	default:
		return "unknown"
	}
}

type job struct {
	kind   JobKind
	airing *models.Airing
}

// jobQueue is the coordinator's FIFO. notify holds at most one pending
// wake-up.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	notify chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{notify: make(chan struct{}, 1)}
}

func (q *jobQueue) push(j job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	n := len(q.jobs)
	q.mu.Unlock()

	metrics.RecordJob(j.kind.String())
	metrics.SetQueueDepth(n)
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// drain takes every queued job and consumes the pending wake-up, so a
// job picked up here does not wake the coordinator a second time.
func (q *jobQueue) drain() []job {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	select {
	case <-q.notify:
	default:
	}
	q.mu.Unlock()
	metrics.SetQueueDepth(0)
	return jobs
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// preempts reports whether a queued job should stop the running cycle. A
// love job always does; any other non-standard job only while the cycle
// is under its ceiling.
func (q *jobQueue) preempts(underCeiling bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.jobs {
		if j.kind == JobStandard {
			continue
		}
		if underCeiling || j.kind == JobLove {
			return true
		}
	}
	return false
}

// submit queues a job and wakes the coordinator.
func (e *Engine) submit(kind JobKind, air *models.Airing) {
	e.queue.push(job{kind: kind, airing: air})
}

// Kick requests a standard full cycle.
func (e *Engine) Kick() {
	e.submit(JobStandard, nil)
}

// Recompute requests an urgent full cycle.
func (e *Engine) Recompute() {
	e.submit(JobRequired, nil)
}

// Run is the job coordinator loop. It runs the bootstrap cycle, then
// drains queued jobs and runs one full cycle per wake-up until ctx is
// cancelled. A timed-out wait also runs a cycle since the window moves.
func (e *Engine) Run(ctx context.Context) error {
	if !e.doneInit.Load() {
		e.bootstrap(ctx)
	}

	timer := time.NewTimer(e.config.IdleWait)
	defer timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.queue.len() == 0 {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.config.IdleWait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.queue.notify:
			case <-timer.C:
				e.logger.Debug().Msg("Idle wait elapsed, refreshing profile")
			}
		}
		e.iterate(ctx)
	}
}

// bootstrap runs the first cycle. With limited init only favorites are
// evaluated and a standard job is queued so the full set follows.
func (e *Engine) bootstrap(ctx context.Context) {
	limited := e.config.LimitedInit
	if !limited {
		e.doneInit.Store(true)
	}
	e.logger.Info().Bool("limited", limited).Msg("Starting initial profile")
	e.iterate(ctx)
	e.doneInit.Store(true)
	if limited {
		e.Kick()
	}
	e.scheduler.Kick(ctx, false)
}

// iterate is one coordinator pass. A panic or error is logged and never
// escapes.
func (e *Engine) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in coordinator iteration")
		}
	}()

	for {
		jobs := e.queue.drain()
		if len(jobs) == 0 {
			break
		}
		for _, j := range jobs {
			var err error
			switch j.kind {
			case JobWatchMark, JobWatchReal:
				err = e.applyWatch(ctx, j.airing)
			case JobWasted:
				err = e.applyWaste(ctx, j.airing)
			}
			if err != nil {
				e.logger.Warn().Err(err).Str("kind", j.kind.String()).Msg("Failed to apply job")
			}
		}
	}

	err := e.runCycle(ctx)
	switch {
	case err == nil, errors.Is(err, ErrCycleCancelled):
	case errors.Is(err, context.Canceled):
		e.logger.Debug().Msg("Cycle aborted by shutdown")
	default:
		e.logger.Error().Err(err).Msg("Recompute cycle failed")
	}
}

// shouldStop is checked by evaluators before each agent after bootstrap.
func (e *Engine) shouldStop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStopped, err)
	}
	if !e.doneInit.Load() {
		return nil
	}
	underCeiling := e.now().Sub(e.cycleStart) < e.config.CycleCeiling
	if e.queue.preempts(underCeiling) {
		return ErrCycleCancelled
	}
	return nil
}

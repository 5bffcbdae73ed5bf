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
	"strings"

	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler/index"
	"github.com/tomtom215/marquee/internal/profiler/priority"
)

// evaluator drains the agent queue. It returns nil when the queue is
// empty and an error when the cycle must stop.
func (e *Engine) evaluator(ctx context.Context, c *cycle, q *agentQueue, limiter *rate.Limiter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in agent evaluator")
			err = fmt.Errorf("%w: evaluator panic: %v", ErrCycleCancelled, r)
		}
	}()

	for {
		if err := e.shouldStop(ctx); err != nil {
			return err
		}
		a, ok := q.pop()
		if !ok {
			return nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrStopped, err)
			}
		}
		e.evaluate(c, a)
	}
}

// evaluate scores one agent and folds its matches into the cycle output.
func (e *Engine) evaluate(c *cycle, a *models.Agent) {
	metrics.AgentsEvaluated.Inc()
	p, err := e.estimator.Estimate(a, c.history)
	if err != nil {
		if errors.Is(err, ErrTraitor) {
			c.addTraitor(a)
			return
		}
		c.log.Warn().Err(err).Int64("agent_id", a.ID).Msg("Skipping agent")
		return
	}

	matches := index.Related(a, c.inWindow, c.inIdx)
	fav := a.IsFavorite()
	if fav {
		c.love.addAirings(matches)
		c.love.addAirings(index.Related(a, c.remainder, c.remIdx))
	}

	if a.IsNegator() || p < 0 {
		c.black.addAirings(matches)
		return
	}

	dontSchedule := fav && a.Capped() && c.recordedCount(matches) >= a.KeepAtMost
	for _, air := range matches {
		if c.isDisallowed(air) {
			continue
		}
		c.pots.add(air.ID)
		watched := c.fullWatched.Has(air.ID)
		c.offer(air.ID, a, p, watched)
		if watched {
			continue
		}
		if dontSchedule && !c.recorded.Has(air.ID) {
			c.clear.add(air.ID)
			continue
		}
		if fav {
			c.mustSee.add(air.ID)
		}
	}
}

// offer records p for an airing when it beats the current score. On an
// exact tie a favorite takes over only if it outranks the current cause.
func (c *cycle) offer(id int64, a *models.Agent, p float64, watched bool) {
	c.probMu.Lock()
	defer c.probMu.Unlock()

	cur, ok := c.prob[id]
	replace := !ok || p > cur
	if !replace && p == cur && a.IsFavorite() {
		old := c.cause[id]
		replace = old == nil || priority.Resolve(c.rel, old, a) == a
	}
	if !replace {
		return
	}
	c.prob[id] = p
	c.cause[id] = a
	if watched {
		c.clear.add(id)
	}
}

func (c *cycle) addTraitor(a *models.Agent) {
	c.traitorMu.Lock()
	c.traitors = append(c.traitors, a)
	c.traitorMu.Unlock()
}

func (c *cycle) recordedCount(airs []*models.Airing) int {
	n := 0
	for _, a := range airs {
		if c.recorded.Has(a.ID) {
			n++
		}
	}
	return n
}

// isDisallowed reports airings that are never scored: no show record or
// a title on the disallowed list.
func (c *cycle) isDisallowed(a *models.Airing) bool {
	if a.Show == nil {
		return true
	}
	_, ok := c.disallowed[strings.ToLower(a.Show.Title)]
	return ok
}

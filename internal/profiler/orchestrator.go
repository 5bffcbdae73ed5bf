// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler/index"
	"github.com/tomtom215/marquee/internal/profiler/priority"
	"github.com/tomtom215/marquee/internal/store"
)

// cycle is the read-only input and the shared output of one recompute
// pass. Output collections are guarded independently; nothing iterates
// them until every evaluator has returned.
type cycle struct {
	log zerolog.Logger

	inWindow  []*models.Airing
	remainder []*models.Airing
	inIdx     *index.Index
	remIdx    *index.Index
	history   *History

	agents      []*models.Agent
	rel         priority.Relation
	fullWatched IDSet
	wasted      IDSet
	recorded    IDSet // airings with a completed recording
	disallowed  map[string]struct{}

	probMu sync.Mutex
	prob   map[int64]float64
	cause  map[int64]*models.Agent

	pots    *syncSet
	mustSee *syncSet
	love    *syncSet
	black   *syncSet
	clear   *syncSet

	traitorMu sync.Mutex
	traitors  []*models.Agent
}

// runCycle performs one full recompute and publishes the result. A
// preempted or failed cycle returns an error wrapping ErrCycleCancelled
// or ErrStopped and leaves the published snapshot untouched.
func (e *Engine) runCycle(ctx context.Context) (err error) {
	cycleID := logging.NewCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)
	log := e.logger.With().Str("cycle_id", cycleID).Logger()

	began := time.Now()
	outcome := metrics.OutcomeFailed
	defer func() { metrics.RecordCycle(outcome, time.Since(began)) }()

	now := e.now()
	if e.cycleStart.IsZero() || e.lastComplete.Load() >= e.cycleStart.UnixNano() {
		e.cycleStart = now
	}

	e.publishMu.Lock()
	clear(e.swaps)
	e.publishMu.Unlock()

	c, err := e.prepareCycle(ctx, now, log)
	if err != nil {
		return fmt.Errorf("prepare cycle: %w", err)
	}

	if err := e.evaluateAll(ctx, c); err != nil {
		if errors.Is(err, ErrCycleCancelled) || errors.Is(err, ErrStopped) {
			outcome = metrics.OutcomeCancelled
			log.Info().Err(err).Dur("elapsed", time.Since(began)).Msg("Recompute cycle cancelled")
		}
		return err
	}

	snap := e.reconcile(ctx, c)
	outcome = metrics.OutcomePublished

	e.syncListeners(snap)
	e.prepped.Store(true)
	e.lastComplete.Store(e.now().UnixNano())

	log.Info().
		Uint64("version", snap.Version).
		Int("agents", len(c.agents)).
		Int("pots", len(snap.Pots)).
		Int("must_see", len(snap.MustSee)).
		Int("love", len(snap.Love)).
		Int("blackballed", len(snap.Blackballed)).
		Dur("elapsed", time.Since(began)).
		Msg("Recompute cycle published")

	if e.doneInit.Load() {
		e.scheduler.Kick(ctx, false)
	}
	return nil
}

// prepareCycle loads the world, partitions airings by the time window,
// selects agents and builds the demand-driven indexes.
func (e *Engine) prepareCycle(ctx context.Context, now time.Time, log zerolog.Logger) (*cycle, error) {
	airs, err := e.store.Airings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load airings: %w", err)
	}
	agents, err := e.store.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	watched, err := e.store.Watched(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watched: %w", err)
	}
	wasted, err := e.store.Wasted(ctx)
	if err != nil {
		return nil, fmt.Errorf("load wasted: %w", err)
	}
	files, err := e.store.MediaFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load media files: %w", err)
	}

	c := &cycle{
		log:         log,
		rel:         priority.NewAgentSet(agents),
		fullWatched: make(IDSet),
		wasted:      make(IDSet),
		recorded:    make(IDSet),
		disallowed:  make(map[string]struct{}, len(e.config.DisallowedTitles)),
		prob:        make(map[int64]float64),
		cause:       make(map[int64]*models.Agent),
		pots:        newSyncSet(),
		mustSee:     newSyncSet(),
		love:        newSyncSet(),
		black:       newSyncSet(),
		clear:       newSyncSet(),
		history:     &History{},
	}
	for _, t := range e.config.DisallowedTitles {
		c.disallowed[strings.ToLower(t)] = struct{}{}
	}

	onDisk := make(IDSet)
	for _, f := range files {
		if f.Complete {
			c.recorded.Add(f.AiringID)
		}
		if f.TV && !f.Archived {
			onDisk.Add(f.AiringID)
		}
	}

	byID := make(map[int64]*models.Airing, len(airs))
	for _, a := range airs {
		byID[a.ID] = a
		switch {
		case onDisk.Has(a.ID), e.inWindow(a, now):
			c.inWindow = append(c.inWindow, a)
		case !a.IsTV():
		default:
			c.remainder = append(c.remainder, a)
		}
	}

	for _, w := range watched {
		if !w.Complete {
			continue
		}
		c.fullWatched.Add(w.AiringID)
		if a, ok := byID[w.AiringID]; ok {
			c.history.Watched = append(c.history.Watched, a)
		}
	}
	for _, w := range wasted {
		c.wasted.Add(w.AiringID)
		if a, ok := byID[w.AiringID]; ok {
			c.history.Wasted = append(c.history.Wasted, a)
		}
	}

	favoritesOnly := !e.doneInit.Load()
	for _, a := range agents {
		if !a.Enabled() || (favoritesOnly && !a.IsFavorite()) {
			continue
		}
		c.agents = append(c.agents, a)
	}

	if e.config.IndexOptimization {
		interest := index.NewInterest(c.agents)
		c.inIdx = index.Build(interest, c.inWindow)
		c.remIdx = index.Build(interest, c.remainder)
		c.history.WatchedIndex = index.Build(interest, c.history.Watched)
		c.history.WastedIndex = index.Build(interest, c.history.Wasted)
		log.Debug().
			Int("interest_keys", len(interest)).
			Int("in_window_buckets", c.inIdx.Buckets()).
			Int("remainder_buckets", c.remIdx.Buckets()).
			Msg("Built interest indexes")
	}

	log.Debug().
		Int("in_window", len(c.inWindow)).
		Int("remainder", len(c.remainder)).
		Int("agents", len(c.agents)).
		Bool("favorites_only", favoritesOnly).
		Msg("Partitioned airings")
	return c, nil
}

// inWindow reports whether a television airing on a station starts inside
// the profiling window. Full cycles and favorite edits share this rule.
func (e *Engine) inWindow(a *models.Airing, now time.Time) bool {
	return a.IsTV() && a.HasStation() &&
		!a.Start.Before(now.Add(-e.config.Lookbehind)) &&
		a.Start.Before(now.Add(e.config.Lookahead))
}

// agentQueue is the shared work queue drained by the evaluators.
type agentQueue struct {
	mu     sync.Mutex
	agents []*models.Agent
	next   int
}

func (q *agentQueue) pop() (*models.Agent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.agents) {
		return nil, false
	}
	a := q.agents[q.next]
	q.next++
	return a, true
}

// abort drops every agent not yet handed out.
func (q *agentQueue) abort() {
	q.mu.Lock()
	q.next = len(q.agents)
	q.mu.Unlock()
}

// progress returns the fraction of agents handed out.
func (q *agentQueue) progress() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.agents) == 0 {
		return 1
	}
	return float64(q.next) / float64(len(q.agents))
}

// evaluateAll runs the evaluator pool over the cycle's agents and waits
// for it. The first evaluator to stop cancels the others.
func (e *Engine) evaluateAll(ctx context.Context, c *cycle) error {
	n := e.config.workers(len(c.agents), runtime.NumCPU())
	metrics.WorkerPoolSize.Set(float64(n))
	if n == 0 {
		return nil
	}

	q := &agentQueue{agents: c.agents}
	var limiter *rate.Limiter
	if e.doneInit.Load() && e.config.CPUControl && len(c.agents) > e.config.CPUControlMinAgents {
		limiter = rate.NewLimiter(rate.Every(e.config.SleepPeriod), 1)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.sampleProgress(q, done, c.log)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for range n {
		g.Go(func() error {
			return e.evaluator(gctx, c, q, limiter)
		})
	}
	err := g.Wait()
	close(done)
	wg.Wait()

	if err != nil {
		q.abort()
		return err
	}
	return nil
}

// sampleProgress reports how much of the agent queue has been consumed
// until done is closed.
func (e *Engine) sampleProgress(q *agentQueue, done <-chan struct{}, log zerolog.Logger) {
	bootstrap := !e.doneInit.Load()
	interval := e.config.ProgressPoll
	if bootstrap {
		interval = e.config.BootstrapPoll
	}
	report := func(f float64) {
		if !bootstrap {
			log.Info().Float64("progress", f).Msg("Recompute cycle in progress")
			return
		}
		metrics.BootstrapProgress.Set(f)
		if e.progress != nil {
			e.progress(f)
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			if bootstrap {
				report(q.progress())
			}
			return
		case <-t.C:
			report(q.progress())
		}
	}
}

// reconcile folds the evaluator output into the next snapshot, removes
// traitors from the store and publishes.
func (e *Engine) reconcile(ctx context.Context, c *cycle) *Snapshot {
	next := &Snapshot{
		Probability: c.prob,
		Cause:       c.cause,
		MustSee:     c.mustSee.set,
		Love:        c.love.set,
		Pots:        c.pots.set,
		Blackballed: c.black.set,
	}

	for id := range next.MustSee {
		delete(next.Blackballed, id)
	}
	for id := range c.clear.set {
		if _, ok := next.Probability[id]; ok {
			next.Probability[id] = 0
		}
	}
	for id := range next.Blackballed {
		next.drop(id)
	}
	for id := range c.wasted {
		next.drop(id)
	}

	e.removeTraitors(ctx, c)

	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	for oldID, newID := range e.swaps {
		next.swap(oldID, newID)
	}
	return e.publish(next)
}

// removeTraitors deletes agents whose estimator rejected them. It runs
// after every evaluator has returned.
func (e *Engine) removeTraitors(ctx context.Context, c *cycle) {
	if len(c.traitors) == 0 {
		return
	}
	err := e.store.UpdateAgents(ctx, func(tx store.AgentTx) error {
		for _, a := range c.traitors {
			if err := tx.Delete(a.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Int("count", len(c.traitors)).Msg("Failed to remove invalid agents")
		return
	}
	metrics.TraitorsRemoved.Add(float64(len(c.traitors)))
	for _, a := range c.traitors {
		c.log.Info().Int64("agent_id", a.ID).Str("agent", a.Describe()).Msg("Removed invalid agent")
	}
}

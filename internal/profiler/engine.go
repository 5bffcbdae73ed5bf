// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package profiler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler/priority"
	"github.com/tomtom215/marquee/internal/store"
)

// Store is the object store the engine reads airings, agents and viewing
// history from. Structural agent changes go through UpdateAgents.
type Store interface {
	Airings(ctx context.Context) ([]*models.Airing, error)
	Airing(ctx context.Context, id int64) (*models.Airing, error)
	Agents(ctx context.Context) ([]*models.Agent, error)
	Agent(ctx context.Context, id int64) (*models.Agent, error)
	UpdateAgents(ctx context.Context, fn func(store.AgentTx) error) error

	Watched(ctx context.Context) ([]*models.Watched, error)
	PutWatched(ctx context.Context, w *models.Watched) error
	DeleteWatched(ctx context.Context, airingID int64) error

	Wasted(ctx context.Context) ([]*models.Wasted, error)
	WastedFor(ctx context.Context, airingID int64) (*models.Wasted, error)
	PutWasted(ctx context.Context, w *models.Wasted) error
	DeleteWasted(ctx context.Context, airingID int64) error
	SetShowDontLike(ctx context.Context, showID int64, dontLike bool) error

	MediaFiles(ctx context.Context) ([]*models.MediaFile, error)
}

// Scheduler is the downstream recording scheduler. Kick asks it to re-run
// against the latest snapshot; required marks the request as urgent.
type Scheduler interface {
	Kick(ctx context.Context, required bool)
}

type nopScheduler struct{}

func (nopScheduler) Kick(context.Context, bool) {}

// Engine is the profiling engine. It owns the job coordinator, runs
// recompute cycles and publishes immutable snapshots. Queries read the
// current snapshot and never block on a running cycle.
//
// It is safe for concurrent use. Setters must be called before Run.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  Store

	estimator Estimator
	scheduler Scheduler
	now       func() time.Time
	progress  func(fraction float64)

	queue *jobQueue

	// publishMu serializes building and publishing snapshots, and guards
	// swaps.
	publishMu sync.Mutex
	current   atomic.Pointer[Snapshot]
	swaps     map[int64]int64

	listenerMu sync.RWMutex
	listeners  []Listener

	doneInit     atomic.Bool
	prepped      atomic.Bool
	lastComplete atomic.Int64 // unix nanos
	watchCount   atomic.Int64

	// cycleStart is only touched by the goroutine running cycles.
	cycleStart time.Time
}

// NewEngine creates a new profiling engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, st Store, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "profiler").Logger(),
		store:     st,
		estimator: TrendEstimator{},
		scheduler: nopScheduler{},
		now:       time.Now,
		queue:     newJobQueue(),
		swaps:     make(map[int64]int64),
	}
	e.current.Store(emptySnapshot())
	return e, nil
}

// SetEstimator replaces the agent probability estimator.
func (e *Engine) SetEstimator(est Estimator) {
	e.estimator = est
}

// SetScheduler sets the scheduler kicked after publication.
func (e *Engine) SetScheduler(s Scheduler) {
	e.scheduler = s
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetProgressFunc sets the bootstrap progress callback.
func (e *Engine) SetProgressFunc(fn func(fraction float64)) {
	e.progress = fn
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Snapshot returns the current published snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Probability returns the watch probability of an airing, floored at the
// configured minimum.
func (e *Engine) Probability(airingID int64) float64 {
	p, ok := e.Snapshot().Probability[airingID]
	if !ok {
		return e.config.MinProbability
	}
	return max(p, e.config.MinProbability)
}

// Cause returns the agent credited for an airing, or nil.
func (e *Engine) Cause(airingID int64) *models.Agent {
	return e.Snapshot().Cause[airingID]
}

// InPots reports whether the airing is in the working set.
func (e *Engine) InPots(airingID int64) bool { return e.Snapshot().Pots.Has(airingID) }

// IsMustSee reports whether the airing must be recorded.
func (e *Engine) IsMustSee(airingID int64) bool { return e.Snapshot().MustSee.Has(airingID) }

// IsLoved reports whether an enabled favorite matches the airing.
func (e *Engine) IsLoved(airingID int64) bool { return e.Snapshot().Love.Has(airingID) }

// Prepped reports whether at least one cycle has been published.
func (e *Engine) Prepped() bool { return e.prepped.Load() }

// IsDoNotDestroy reports whether the cause of the airing forbids
// automatic deletion of its recording.
func (e *Engine) IsDoNotDestroy(airingID int64) bool {
	c := e.Cause(airingID)
	return c != nil && c.Has(models.FlagDontAutodelete)
}

// IsDeleteAfterConversion reports whether the recording of the airing is
// removed once converted.
func (e *Engine) IsDeleteAfterConversion(airingID int64) bool {
	c := e.Cause(airingID)
	return c != nil && c.Has(models.FlagDeleteAfterConvert)
}

// AreSameFavorite reports whether two airings are attributed to the same
// favorite. When the causes differ, a favorite cause of either airing
// that also matches the other one counts.
func (e *Engine) AreSameFavorite(a, b *models.Airing) bool {
	snap := e.Snapshot()
	c1, c2 := snap.Cause[a.ID], snap.Cause[b.ID]
	if c1 == c2 || (c1 != nil && c2 != nil && c1.ID == c2.ID) {
		return true
	}
	switch {
	case c1 != nil && c1.IsFavorite():
		return c1.Matches(b)
	case c2 != nil && c2.IsFavorite():
		return c2.Matches(a)
	default:
		return true
	}
}

// ResolveConflict returns the airing that should win a scheduling
// conflict, or nil when there is no decision. An airing with a cause beats
// one without; between two causes the dominant agent wins.
func (e *Engine) ResolveConflict(ctx context.Context, a, b *models.Airing) *models.Airing {
	snap := e.Snapshot()
	c1, c2 := snap.Cause[a.ID], snap.Cause[b.ID]
	switch {
	case c1 == nil && c2 == nil:
		return nil
	case c2 == nil:
		return a
	case c1 == nil:
		return b
	}

	var rel priority.Relation
	agents, err := e.store.Agents(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Falling back to published causes for conflict resolution")
		rel = priority.NewAgentSet([]*models.Agent{c1, c2})
	} else {
		rel = priority.NewAgentSet(agents)
	}
	switch priority.Resolve(rel, c1, c2) {
	case c1:
		return a
	case c2:
		return b
	default:
		return nil
	}
}

// Profile returns the profiling view of one airing.
func (e *Engine) Profile(airingID int64) models.AiringProfile {
	snap := e.Snapshot()
	p := models.AiringProfile{
		AiringID:    airingID,
		Probability: e.Probability(airingID),
		InPots:      snap.Pots.Has(airingID),
		MustSee:     snap.MustSee.Has(airingID),
		Loved:       snap.Love.Has(airingID),
		Blackballed: snap.Blackballed.Has(airingID),
	}
	if c := snap.Cause[airingID]; c != nil {
		p.CauseID = c.ID
		p.Cause = c.Describe()
		p.DoNotDelete = c.Has(models.FlagDontAutodelete)
	}
	return p
}

// Status summarizes engine state.
func (e *Engine) Status() models.ProfilerStatus {
	snap := e.Snapshot()
	st := models.ProfilerStatus{
		Prepped:        e.prepped.Load(),
		DoneInit:       e.doneInit.Load(),
		QueueLength:    e.queue.len(),
		Version:        snap.Version,
		PotsCount:      len(snap.Pots),
		MustSeeCount:   len(snap.MustSee),
		LoveCount:      len(snap.Love),
		BlackballCount: len(snap.Blackballed),
		WatchCount:     e.watchCount.Load(),
	}
	if ns := e.lastComplete.Load(); ns != 0 {
		st.LastCycleAt = time.Unix(0, ns)
	}
	return st
}

// publish installs next as the current snapshot. The caller holds
// publishMu.
func (e *Engine) publish(next *Snapshot) *Snapshot {
	next.Version = e.current.Load().Version + 1
	next.PublishedAt = e.now()
	e.current.Store(next)
	metrics.RecordSnapshot(next.Version, len(next.Probability), len(next.Pots),
		len(next.MustSee), len(next.Love), len(next.Blackballed))
	return next
}

// mutate applies fn to a copy of the current snapshot and publishes it.
func (e *Engine) mutate(fn func(s *Snapshot)) *Snapshot {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	next := e.current.Load().clone()
	fn(next)
	return e.publish(next)
}

// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler"
)

// SnapshotSource supplies the version stamped on sync notifications.
type SnapshotSource interface {
	Snapshot() *profiler.Snapshot
}

// Notifier publishes listener sync rounds and scheduler kicks to the bus.
// It is both a profiler.Listener and a profiler.Scheduler.
type Notifier struct {
	publisher message.Publisher
	config    Config
	breaker   *breaker
	source    SnapshotSource
	now       func() time.Time
	logger    zerolog.Logger
}

var (
	_ profiler.Listener  = (*Notifier)(nil)
	_ profiler.Scheduler = (*Notifier)(nil)
)

// NewNotifier creates a notifier publishing through bus.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNotifier(bus *Bus, logger zerolog.Logger) *Notifier {
	cfg := bus.Config()
	logger = logger.With().Str("component", "notifier").Logger()
	return &Notifier{
		publisher: bus.Publisher,
		config:    cfg,
		breaker:   newBreaker(cfg.Breaker, logger),
		now:       time.Now,
		logger:    logger,
	}
}

// SetSource sets where snapshot versions are read from.
func (n *Notifier) SetSource(s SnapshotSource) {
	n.source = s
}

// BreakerState returns the state of the publish circuit breaker.
func (n *Notifier) BreakerState() gobreaker.State {
	return n.breaker.state()
}

// UpdateLoves publishes the loved airing set.
func (n *Notifier) UpdateLoves(love profiler.IDSet) bool {
	return n.sync(TopicSyncLove, &models.SyncNotification{Love: sortedIDs(love)})
}

// UpdateProbabilities publishes the probability map.
func (n *Notifier) UpdateProbabilities(prob map[int64]float64) bool {
	return n.sync(TopicSyncProbability, &models.SyncNotification{Probability: prob})
}

// UpdateCauses publishes the cause map as agent IDs.
func (n *Notifier) UpdateCauses(cause map[int64]*models.Agent) bool {
	ids := make(map[int64]int64, len(cause))
	for airingID, a := range cause {
		if a != nil {
			ids[airingID] = a.ID
		}
	}
	return n.sync(TopicSyncCause, &models.SyncNotification{Cause: ids})
}

// UpdateMustSees publishes the must-see set.
func (n *Notifier) UpdateMustSees(mustSee profiler.IDSet) bool {
	return n.sync(TopicSyncMustSee, &models.SyncNotification{MustSee: sortedIDs(mustSee)})
}

// Kick asks the recording scheduler to re-run. Failures are logged; the
// next cycle kicks again.
func (n *Notifier) Kick(ctx context.Context, required bool) {
	kick := &models.SchedulerKick{Required: required, RequestedAt: n.now()}
	if err := n.publish(ctx, TopicSchedulerKick, kick); err != nil {
		n.logger.Warn().Err(err).Bool("required", required).Msg("Failed to publish scheduler kick")
	}
}

func (n *Notifier) sync(suffix string, note *models.SyncNotification) bool {
	note.Kind = suffix[len("sync."):]
	if n.source != nil {
		if snap := n.source.Snapshot(); snap != nil {
			note.Version = snap.Version
			note.PublishedAt = snap.PublishedAt
		}
	}
	if err := n.publish(context.Background(), suffix, note); err != nil {
		n.logger.Warn().Err(err).Str("kind", note.Kind).Msg("Listener sync interrupted")
		return false
	}
	return true
}

// publish encodes v and sends it through the circuit breaker.
func (n *Notifier) publish(ctx context.Context, suffix string, v any) error {
	topic := n.config.Topic(suffix)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	msg := newMessage(data)
	msg.SetContext(ctx)
	msg.Metadata.Set("kind", suffix)

	err = n.breaker.execute(func() error {
		return n.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func sortedIDs(set profiler.IDSet) []int64 {
	return slices.Sorted(maps.Keys(set))
}

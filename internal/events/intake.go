// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/store"
	"github.com/tomtom215/marquee/internal/validation"
)

// Engine is the part of the profiler driven by intake messages.
type Engine interface {
	ReportWatch(ctx context.Context, airingID int64, confirmed, complete bool) error
	ClearWatch(ctx context.Context, airingID int64) error
	AddDontLike(ctx context.Context, airingID int64, manual bool) error
	RemoveDontLike(ctx context.Context, airingID int64) error
	NotifyAiringSwap(oldID, newID int64)
	Kick()
	Recompute()
}

// Catalog receives guide and recording upserts.
type Catalog interface {
	PutShow(ctx context.Context, show *models.Show) error
	PutAiring(ctx context.Context, air *models.Airing) error
	PutMediaFile(ctx context.Context, mf *models.MediaFile) error
}

// Intake applies bus messages to the engine. Malformed payloads and
// references to unknown airings are permanent failures; everything else
// is retried by the router.
type Intake struct {
	engine  Engine
	catalog Catalog
	logger  zerolog.Logger
}

// NewIntake creates the intake handlers.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewIntake(engine Engine, catalog Catalog, logger zerolog.Logger) *Intake {
	return &Intake{
		engine:  engine,
		catalog: catalog,
		logger:  logger.With().Str("component", "intake").Logger(),
	}
}

// decode unmarshals and validates a payload.
func decode[T any](msg *message.Message) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return nil, NewPermanentError("JSON parse error", err)
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return nil, NewPermanentError("invalid payload", verr)
	}
	return v, nil
}

// classify turns lookups of unknown records into permanent errors.
func classify(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewPermanentError("unknown record", err)
	}
	return err
}

func msgContext(msg *message.Message) context.Context {
	if ctx := msg.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// HandleWatch applies a WatchEvent.
func (in *Intake) HandleWatch(msg *message.Message) error {
	ev, err := decode[models.WatchEvent](msg)
	if err != nil {
		return err
	}
	ctx := msgContext(msg)
	if ev.Clear {
		err = in.engine.ClearWatch(ctx, ev.AiringID)
	} else {
		err = in.engine.ReportWatch(ctx, ev.AiringID, ev.Confirmed, ev.Complete)
	}
	return classify(err)
}

// HandleWaste applies a WasteEvent.
func (in *Intake) HandleWaste(msg *message.Message) error {
	ev, err := decode[models.WasteEvent](msg)
	if err != nil {
		return err
	}
	ctx := msgContext(msg)
	if ev.Remove {
		err = in.engine.RemoveDontLike(ctx, ev.AiringID)
	} else {
		err = in.engine.AddDontLike(ctx, ev.AiringID, ev.Manual)
	}
	return classify(err)
}

// HandleSwap applies a SwapEvent.
func (in *Intake) HandleSwap(msg *message.Message) error {
	ev, err := decode[models.SwapEvent](msg)
	if err != nil {
		return err
	}
	in.engine.NotifyAiringSwap(ev.OldAiringID, ev.NewAiringID)
	return nil
}

// HandleRecompute applies a RecomputeEvent. An empty payload requests a
// standard cycle.
func (in *Intake) HandleRecompute(msg *message.Message) error {
	ev := &models.RecomputeEvent{}
	if len(msg.Payload) > 0 {
		var err error
		if ev, err = decode[models.RecomputeEvent](msg); err != nil {
			return err
		}
	}
	if ev.Required {
		in.engine.Recompute()
	} else {
		in.engine.Kick()
	}
	return nil
}

// HandleCatalog writes show, airing and media file upserts in that order
// and then requests a standard cycle. Redelivery is safe since every
// write is an upsert.
func (in *Intake) HandleCatalog(msg *message.Message) error {
	ev, err := decode[models.CatalogEvent](msg)
	if err != nil {
		return err
	}
	if ev.Empty() {
		return nil
	}
	ctx := msgContext(msg)
	for _, s := range ev.Shows {
		if err := in.catalog.PutShow(ctx, s); err != nil {
			return fmt.Errorf("put show %d: %w", s.ID, err)
		}
	}
	for _, a := range ev.Airings {
		if err := in.catalog.PutAiring(ctx, a); err != nil {
			return fmt.Errorf("put airing %d: %w", a.ID, err)
		}
	}
	for _, mf := range ev.MediaFiles {
		if err := in.catalog.PutMediaFile(ctx, mf); err != nil {
			return fmt.Errorf("put media file %d: %w", mf.ID, err)
		}
	}
	in.logger.Debug().
		Int("shows", len(ev.Shows)).
		Int("airings", len(ev.Airings)).
		Int("media_files", len(ev.MediaFiles)).
		Msg("Catalog updated")
	in.engine.Kick()
	return nil
}

// observed records the outcome of a handler under its topic.
func observed(topic string, h message.NoPublishHandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := h(msg)
		metrics.RecordEventConsumed(topic, err)
		return err
	}
}

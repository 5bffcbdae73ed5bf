// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler"
)

// Engine is the profiling surface the HTTP handlers drive.
// *profiler.Engine satisfies it.
type Engine interface {
	Snapshot() *profiler.Snapshot
	Prepped() bool
	Status() models.ProfilerStatus
	Profile(airingID int64) models.AiringProfile
	AreSameFavorite(a, b *models.Airing) bool
	ResolveConflict(ctx context.Context, a, b *models.Airing) *models.Airing

	ReportWatch(ctx context.Context, airingID int64, confirmed, complete bool) error
	ClearWatch(ctx context.Context, airingID int64) error
	AddDontLike(ctx context.Context, airingID int64, manual bool) error
	RemoveDontLike(ctx context.Context, airingID int64) error
	NotifyAiringSwap(oldID, newID int64)
	Kick()
	Recompute()

	Favorites(ctx context.Context) ([]*models.Agent, error)
	AddFavorite(ctx context.Context, spec *models.Agent) (*models.Agent, error)
	UpdateFavorite(ctx context.Context, id int64, spec *models.Agent) (*models.Agent, error)
	RemoveFavorite(ctx context.Context, id int64) error
	EnableFavorite(ctx context.Context, id int64, enabled bool) (*models.Agent, error)
	SetFavoriteOptions(ctx context.Context, id int64, opts profiler.FavoriteOptions) (*models.Agent, error)
	CreatePriority(ctx context.Context, topID, bottomID int64) error
	FixAgentPriorities(ctx context.Context) ([]*models.Agent, error)
}

// AiringSource loads airings for conflict and same-favorite queries.
// *store.BadgerStore satisfies it.
type AiringSource interface {
	Airing(ctx context.Context, id int64) (*models.Airing, error)
}

// Handler serves the profiling API.
type Handler struct {
	engine    Engine
	airings   AiringSource
	startTime time.Time
	logger    zerolog.Logger
}

// NewHandler creates a handler over engine and airings.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(engine Engine, airings AiringSource, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		airings:   airings,
		startTime: time.Now(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// respond writes a success envelope stamped with the current snapshot
// version and the handler's elapsed time.
func (h *Handler) respond(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:       time.Now(),
			QueryTimeMS:     time.Since(start).Milliseconds(),
			SnapshotVersion: h.engine.Snapshot().Version,
		},
	})
}

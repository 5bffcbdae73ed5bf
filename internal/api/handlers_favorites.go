// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

// ListFavorites returns every favorite in linearized priority order.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	favs, err := h.engine.Favorites(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if favs == nil {
		favs = []*models.Agent{}
	}
	h.respond(w, http.StatusOK, favs, start)
}

// CreateFavorite adds a favorite. A rule that already exists returns the
// stored favorite.
func (h *Handler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req FavoriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fav, err := h.engine.AddFavorite(r.Context(), req.Agent())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.logger.Debug().Int64("agent_id", fav.ID).Msg("Favorite create request")
	h.respond(w, http.StatusCreated, fav, start)
}

// UpdateFavorite replaces the rule of a favorite.
func (h *Handler) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req FavoriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fav, err := h.engine.UpdateFavorite(r.Context(), id, req.Agent())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, fav, start)
}

// DeleteFavorite removes a favorite.
func (h *Handler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.engine.RemoveFavorite(r.Context(), id); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int64{"deleted": id}, start)
}

// EnableFavorite returns a handler that sets the enabled state of the
// favorite in the path.
func (h *Handler) EnableFavorite(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		fav, err := h.engine.EnableFavorite(r.Context(), id, enabled)
		if err != nil {
			respondEngineError(w, r, err)
			return
		}
		h.respond(w, http.StatusOK, fav, start)
	}
}

// FavoriteOptions edits padding, keep-at-most and retention flags.
func (h *Handler) FavoriteOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req FavoriteOptionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fav, err := h.engine.SetFavoriteOptions(r.Context(), id, req.Options())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, fav, start)
}

// CreatePriority makes the path favorite outrank the body's bottom_id.
func (h *Handler) CreatePriority(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req PriorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BottomID == id {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bottom_id must differ from the favorite", nil)
		return
	}
	if err := h.engine.CreatePriority(r.Context(), id, req.BottomID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]int64{"top_id": id, "bottom_id": req.BottomID}, start)
}

// FixPriorities drops dangling priority edges and returns the rebuilt
// order.
func (h *Handler) FixPriorities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	favs, err := h.engine.FixAgentPriorities(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if favs == nil {
		favs = []*models.Agent{}
	}
	h.respond(w, http.StatusOK, favs, start)
}

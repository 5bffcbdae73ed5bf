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

// ConflictResult names the airing to keep when two recordings overlap.
// Decided is false, and WinnerID zero, when neither airing dominates.
type ConflictResult struct {
	Decided  bool                 `json:"decided"`
	WinnerID int64                `json:"winner_id,omitempty"`
	A        models.AiringProfile `json:"a"`
	B        models.AiringProfile `json:"b"`
}

// SameFavoriteResult reports whether two airings were caused by the same
// favorite.
type SameFavoriteResult struct {
	A    int64 `json:"a"`
	B    int64 `json:"b"`
	Same bool  `json:"same"`
}

// AiringProfile returns probability, cause and set membership of one
// airing. Unknown airings profile as zero; queries never fail.
func (h *Handler) AiringProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, h.engine.Profile(id), start)
}

// AiringConflict resolves a recording conflict between two airings.
func (h *Handler) AiringConflict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a, b, ok := h.airingPair(w, r)
	if !ok {
		return
	}
	res := ConflictResult{
		A: h.engine.Profile(a.ID),
		B: h.engine.Profile(b.ID),
	}
	if winner := h.engine.ResolveConflict(r.Context(), a, b); winner != nil {
		res.Decided = true
		res.WinnerID = winner.ID
	}
	h.respond(w, http.StatusOK, res, start)
}

// AiringSameFavorite reports whether two airings share a favorite cause.
func (h *Handler) AiringSameFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a, b, ok := h.airingPair(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, SameFavoriteResult{
		A:    a.ID,
		B:    b.ID,
		Same: h.engine.AreSameFavorite(a, b),
	}, start)
}

func (h *Handler) airingPair(w http.ResponseWriter, r *http.Request) (a, b *models.Airing, ok bool) {
	aID, ok := pathID(w, r, "a")
	if !ok {
		return nil, nil, false
	}
	bID, ok := pathID(w, r, "b")
	if !ok {
		return nil, nil, false
	}
	a, err := h.airings.Airing(r.Context(), aID)
	if err != nil {
		respondEngineError(w, r, err)
		return nil, nil, false
	}
	b, err = h.airings.Airing(r.Context(), bID)
	if err != nil {
		respondEngineError(w, r, err)
		return nil, nil, false
	}
	return a, b, true
}

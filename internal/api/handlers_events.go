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

// ReportWatch records a viewing. A body with clear set withdraws it.
func (h *Handler) ReportWatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var ev models.WatchEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	var err error
	if ev.Clear {
		err = h.engine.ClearWatch(r.Context(), ev.AiringID)
	} else {
		err = h.engine.ReportWatch(r.Context(), ev.AiringID, ev.Confirmed, ev.Complete)
	}
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusAccepted, ev, start)
}

// ClearWatch withdraws the viewing of the airing in the path.
func (h *Handler) ClearWatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.engine.ClearWatch(r.Context(), id); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusAccepted, models.WatchEvent{AiringID: id, Clear: true}, start)
}

// ReportWaste marks an airing as not liked. A body with remove set takes
// the mark back.
func (h *Handler) ReportWaste(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var ev models.WasteEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	var err error
	if ev.Remove {
		err = h.engine.RemoveDontLike(r.Context(), ev.AiringID)
	} else {
		err = h.engine.AddDontLike(r.Context(), ev.AiringID, ev.Manual)
	}
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusAccepted, ev, start)
}

// RemoveWaste takes back the don't-like mark of the airing in the path.
func (h *Handler) RemoveWaste(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.engine.RemoveDontLike(r.Context(), id); err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.respond(w, http.StatusAccepted, models.WasteEvent{AiringID: id, Remove: true}, start)
}

// SwapAiring moves derived state from one airing to its replacement.
func (h *Handler) SwapAiring(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var ev models.SwapEvent
	if !decodeBody(w, r, &ev) {
		return
	}
	h.engine.NotifyAiringSwap(ev.OldAiringID, ev.NewAiringID)
	h.respond(w, http.StatusOK, ev, start)
}

// Recompute requests a profiling cycle. An empty body asks for a standard
// cycle.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req RecomputeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Required {
		h.engine.Recompute()
	} else {
		h.engine.Kick()
	}
	h.respond(w, http.StatusAccepted, req, start)
}

// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the HTTP API and the event
// intake. Error field names come from json tags so messages match the
// request bodies clients send.
//
// Custom tags:
//   - hourofweek: integer in [0, 168), the slot numbering of timeslot rules
//
// Usage:
//
//	type WatchEvent struct {
//	    AiringID int64 `json:"airing_id" validate:"required,gt=0"`
//	}
//
//	if verr := validation.ValidateStruct(&ev); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation

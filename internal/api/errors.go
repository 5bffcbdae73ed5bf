// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/profiler"
	"github.com/tomtom215/marquee/internal/store"
)

// maxErrorLogLen bounds error strings in request logs.
const maxErrorLogLen = 512

// respondEngineError maps engine and store errors to HTTP responses.
// Server-side failures are logged with the request ID.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classifyEngineError(err)
	if status >= http.StatusInternalServerError || status == http.StatusGatewayTimeout {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(logging.TruncateError(err, maxErrorLogLen))).
			Msg("API Error")
	}
	respondError(w, status, code, msg, nil)
}

func classifyEngineError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Record not found"
	case errors.Is(err, models.ErrInvalidAgent), errors.Is(err, profiler.ErrNotFavorite):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, store.ErrDuplicateAgent):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "Request timed out"
	case errors.Is(err, store.ErrClosed):
		return http.StatusServiceUnavailable, "STORE_ERROR", "Store is closed"
	default:
		return http.StatusInternalServerError, "ENGINE_ERROR", "Profiler operation failed"
	}
}

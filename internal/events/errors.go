// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid event bus configuration")

	// ErrClosed is returned by publishes after Close.
	ErrClosed = errors.New("event bus is closed")
)

// PermanentError marks a message that will never succeed. The router
// acknowledges it instead of retrying.
type PermanentError struct {
	Message string
	Cause   error
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, cause error) *PermanentError {
	return &PermanentError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// IsPermanentError checks if the error is permanent (non-retryable).
func IsPermanentError(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

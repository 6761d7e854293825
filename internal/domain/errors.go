// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a creation request fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration is returned when settings are missing or cannot be
	// resolved. Fatal to the affected task creation or recovery, never to
	// the process.
	ErrConfiguration = errors.New("configuration error")

	// ErrIllegalTransition is returned when a status change would violate
	// the task lifecycle state machine.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrTaskNotFound is returned when a task lookup misses both the
	// in-memory set and the persistent store.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidID is returned when a task ID is malformed.
	ErrInvalidID = errors.New("invalid ID")
)

package domain

import "errors"

// Sentinel errors surfaced to API callers.
var (
	// ErrValidation indicates the caller supplied an empty or unusable value.
	// Surfaced synchronously, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested record does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("not found")
)

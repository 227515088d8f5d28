package engine

import "errors"

var (
	// ErrNilSelector is returned by New when no store selector is configured.
	ErrNilSelector = errors.New("engine: store selector is nil")

	// ErrWriteVerification indicates the post-write read-back did not
	// match what was written. Handled internally by rolling back both
	// keys; never returned from the caller-facing operations.
	ErrWriteVerification = errors.New("engine: write verification failed")
)

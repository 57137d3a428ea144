package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped      = errors.New("worker stopped")
	ErrHandlerPanic = errors.New("command handler panicked")
)

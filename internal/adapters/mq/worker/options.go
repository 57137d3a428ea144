package worker

import (
	"time"

	"github.com/okian/scramble/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName tags the worker's log lines, usually with the session id.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSlowThreshold logs a warning for every command that took longer than d
// from enqueue to reply. Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.slow = d
		}
	}
}

package service

import (
	"time"

	"github.com/okian/scramble/internal/adapters/repository"
	"github.com/okian/scramble/internal/domain/catalog"
	"github.com/okian/scramble/internal/domain/session"
	"github.com/okian/scramble/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCatalog sets the word catalog. The built-in catalog is used otherwise.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithSessionConfig sets round duration, scoring rules and hint mode.
func WithSessionConfig(cfg session.Config) Option {
	return func(s *Service) {
		if cfg.Validate() == nil {
			s.sessionCfg = cfg
		}
	}
}

// WithTickInterval sets the countdown period. Tests shorten it.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithCommandQueueSize sets the per-session command queue capacity.
func WithCommandQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithScoreStore sets where best scores are persisted.
func WithScoreStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTimeout sets how long a session may go without player actions
// before the janitor closes it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithDedupeSize sets the size of the idempotency key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRandSeed makes word draws and scrambles reproducible across the service.
func WithRandSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithSubscriberBuffer sets the event buffer of each subscriber.
func WithSubscriberBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.subscriberBuffer = size
		}
	}
}

// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, then layer file and env on top in Load.
// - Durations are stored as integer seconds or milliseconds and exposed as time.Duration helpers.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/scramble/internal/domain/scoring"
	"github.com/okian/scramble/internal/domain/session"
)

// Score store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RoundDurationSeconds is the countdown start value of a round.
	RoundDurationSeconds int `koanf:"round_duration_seconds"`

	// CorrectPoints is awarded per solved word.
	CorrectPoints int `koanf:"correct_points"`

	// HintCost is deducted per purchased hint.
	HintCost int `koanf:"hint_cost"`

	// HintMode is disclose or prefix.
	HintMode string `koanf:"hint_mode"`

	// TickIntervalMS is the wall-clock length of one countdown second.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// CommandQueueSize bounds each session's command queue.
	CommandQueueSize int `koanf:"command_queue_size"`

	// MaxSessions bounds the number of live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// SessionIdleTimeoutSeconds evicts sessions without player actions.
	SessionIdleTimeoutSeconds int `koanf:"session_idle_timeout_seconds"`

	// JanitorIntervalSeconds sets how often idle sessions are swept.
	JanitorIntervalSeconds int `koanf:"janitor_interval_seconds"`

	// DedupeSize sets the size of the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// CatalogFile optionally replaces the built-in word catalog with a YAML file.
	CatalogFile string `koanf:"catalog_file"`

	// ScoreStore selects where best scores live: memory or redis.
	ScoreStore string `koanf:"score_store"`

	// Redis connection for ScoreStore=redis.
	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`
	RedisTTLHours  int    `koanf:"redis_ttl_hours"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		RoundDurationSeconds:      session.DefaultRoundDuration,
		CorrectPoints:             scoring.DefaultCorrectPoints,
		HintCost:                  scoring.DefaultHintCost,
		HintMode:                  string(session.HintDisclose),
		TickIntervalMS:            1000,
		CommandQueueSize:          64,
		MaxSessions:               10_000,
		SessionIdleTimeoutSeconds: 1800,
		JanitorIntervalSeconds:    60,
		DedupeSize:                50_000,
		ScoreStore:                StoreMemory,
		RedisKeyPrefix:            "scramble",
		CORSAllowedOrigins:        []string{"*"},
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Session().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	positive := []struct {
		name string
		val  int
	}{
		{"tick_interval_ms", c.TickIntervalMS},
		{"command_queue_size", c.CommandQueueSize},
		{"max_sessions", c.MaxSessions},
		{"session_idle_timeout_seconds", c.SessionIdleTimeoutSeconds},
		{"janitor_interval_seconds", c.JanitorIntervalSeconds},
		{"dedupe_size", c.DedupeSize},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.val)
		}
	}
	switch c.ScoreStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrRedisAddr)
		}
		if c.RedisTTLHours < 0 {
			return fmt.Errorf("%w: redis_ttl_hours must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown score_store %q", ErrInvalidConfig, c.ScoreStore)
	}
	return nil
}

// Session returns the per-session game parameters.
func (c *Config) Session() session.Config {
	return session.Config{
		RoundDuration: c.RoundDurationSeconds,
		Rules: scoring.Rules{
			CorrectPoints: c.CorrectPoints,
			HintCost:      c.HintCost,
		},
		HintMode: session.HintMode(strings.ToLower(c.HintMode)),
	}
}

// TickInterval returns the countdown period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// IdleTimeout returns how long a session may stay without player actions.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutSeconds) * time.Second
}

// JanitorInterval returns the idle sweep period.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}

// RedisTTL returns the best-score key expiry; zero disables expiry.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLHours) * time.Hour
}

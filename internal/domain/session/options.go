package session

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/scramble/internal/domain/scoring"
	"github.com/okian/scramble/internal/domain/scramble"
)

// Default session configuration constants.
const (
	DefaultRoundDuration = 30 // seconds
)

// HintMode selects how a purchased hint reveals the first letter.
type HintMode string

const (
	// HintDisclose reports the letter in the notice and snapshot only.
	HintDisclose HintMode = "disclose"
	// HintPrefix additionally replaces the guess buffer with the letter.
	HintPrefix HintMode = "prefix"
)

// Config holds the named game parameters.
type Config struct {
	RoundDuration int           `json:"roundDuration"`
	Rules         scoring.Rules `json:"rules"`
	HintMode      HintMode      `json:"hintMode"`
}

// DefaultConfig returns the canonical parameters: 30 seconds, 10 points per
// word, 2 points per hint, out-of-band hint disclosure.
func DefaultConfig() Config {
	return Config{
		RoundDuration: DefaultRoundDuration,
		Rules:         scoring.DefaultRules(),
		HintMode:      HintDisclose,
	}
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.RoundDuration <= 0 {
		return fmt.Errorf("%w: round duration must be positive, got %d", ErrInvalidConfig, c.RoundDuration)
	}
	if c.Rules.CorrectPoints <= 0 {
		return fmt.Errorf("%w: correct points must be positive, got %d", ErrInvalidConfig, c.Rules.CorrectPoints)
	}
	if c.Rules.HintCost < 0 {
		return fmt.Errorf("%w: hint cost must not be negative, got %d", ErrInvalidConfig, c.Rules.HintCost)
	}
	switch c.HintMode {
	case HintDisclose, HintPrefix:
	default:
		return fmt.Errorf("%w: unknown hint mode %q", ErrInvalidConfig, c.HintMode)
	}
	return nil
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithConfig replaces the default parameters. Invalid configs are ignored.
func WithConfig(cfg Config) Option {
	return func(s *Session) {
		if cfg.Validate() == nil {
			s.cfg = cfg
		}
	}
}

// WithRand seeds draws and permutations from r.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.scrambler = scramble.New(scramble.WithSource(r))
		}
	}
}

// WithHighScore seeds the best score, e.g. from a persisted cell.
func WithHighScore(best int) Option {
	return func(s *Session) {
		if best > 0 {
			s.highScore = best
		}
	}
}

// WithID tags snapshots with an identifier.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

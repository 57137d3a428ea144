package session

import (
	"errors"

	"github.com/okian/scramble/internal/domain/catalog"
)

// Sentinel errors returned by Session transitions.
var (
	// ErrUnknownCategory is the catalog sentinel, re-exported so callers of this
	// package need not import catalog to branch on it.
	ErrUnknownCategory = catalog.ErrUnknownCategory

	ErrInvalidAction     = errors.New("invalid action for current phase")
	ErrGuessMismatch     = errors.New("guess does not match the word")
	ErrInsufficientScore = errors.New("not enough points for hint")
	ErrInvalidConfig     = errors.New("invalid session config")
)

package repository

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrInvalidKey    = errors.New("invalid player key")
	ErrNegativeScore = errors.New("score must not be negative")
	ErrStoreClosed   = errors.New("score store closed")
)

package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidWord     = errors.New("invalid catalog word")
	ErrEmptyCatalog    = errors.New("catalog has no playable category")
)

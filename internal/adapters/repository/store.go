// Package repository stores the best-score cell of each player.
package repository

import "context"

// Store provides read/write access to best scores keyed by player.
type Store interface {
	// Best returns the stored best score for key, or 0 when none exists.
	Best(ctx context.Context, key string) (int, error)

	// RecordBest stores score if it beats the current best. It returns the best
	// score after the call and whether score improved it.
	RecordBest(ctx context.Context, key string, score int) (best int, improved bool, err error)

	// Close releases resources held by the store.
	Close() error
}

func validate(key string, score int) error {
	if key == "" {
		return ErrInvalidKey
	}
	if score < 0 {
		return ErrNegativeScore
	}
	return nil
}

package queue

import "errors"

// Sentinel errors for enqueue failures.
var (
	ErrQueueFull   = errors.New("command queue full")
	ErrQueueClosed = errors.New("command queue closed")
)

package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrBackpressure    = errors.New("session command queue full")
	ErrStopped         = errors.New("service stopped")
	ErrUnknownCommand  = errors.New("unknown command")
)

package config

import "errors"

// Every error returned by Load wraps one of these.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrRedisAddr is wrapped with ErrInvalidConfig when the redis store is
	// selected without an address.
	ErrRedisAddr = errors.New("redis_addr is required when score_store is redis")
)

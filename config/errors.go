package config

import "errors"

var (
	// ErrInvalidValue indicates an environment variable could not be parsed.
	ErrInvalidValue = errors.New("config: invalid value")

	// ErrMissingEnv indicates a ${NAME} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variable")

	// ErrInvalidConcurrency indicates a negative harness concurrency.
	ErrInvalidConcurrency = errors.New("config: concurrency must not be negative")

	// ErrInvalidWarmupKeys indicates a warmup key count outside the key space.
	ErrInvalidWarmupKeys = errors.New("config: warmup keys out of range")
)

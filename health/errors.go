package health

import "errors"

var (
	// ErrCheckTimeout indicates a checker did not answer before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrDraining indicates the service stopped accepting new work.
	ErrDraining = errors.New("health: draining")

	// ErrCacheFull indicates the cache reached its configured entry bound.
	ErrCacheFull = errors.New("health: cache at capacity")
)

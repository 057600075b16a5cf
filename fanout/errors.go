package fanout

import "errors"

// Sentinel errors for the fan-out harness.
var (
	// ErrNilStore indicates New was called without a store.
	ErrNilStore = errors.New("fanout: store is nil")

	// ErrInvalidConcurrency indicates a negative concurrency cap.
	ErrInvalidConcurrency = errors.New("fanout: concurrency must not be negative")

	// ErrMismatch reports that a verified key did not hold its expected value.
	ErrMismatch = errors.New("fanout: cached value mismatch")

	// ErrIncomplete reports that some units were never admitted.
	ErrIncomplete = errors.New("fanout: phase incomplete")
)

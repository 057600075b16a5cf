package fanout

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/jonwraymond/ttlserve/cache"
)

// Phase names.
const (
	PhasePopulate = "populate"
	PhaseVerify   = "verify"
)

// Mismatch records a verify unit whose read disagreed with the expected value.
type Mismatch struct {
	Key  cache.Key
	Want string
	Got  mo.Option[string]
}

func (m Mismatch) String() string {
	got, ok := m.Got.Get()
	if !ok {
		return fmt.Sprintf("key %d: want %q, got nothing", m.Key, m.Want)
	}
	return fmt.Sprintf("key %d: want %q, got %q", m.Key, m.Want, got)
}

// Report summarizes one phase.
type Report struct {
	Phase string

	// Submitted is the number of keys handed to the phase.
	Submitted int
	Passed    int
	Failed    int

	// Skipped counts units that were never admitted because the phase
	// context ended first.
	Skipped int

	// Mismatches is ordered by key.
	Mismatches []Mismatch

	// MaxInFlight is the largest number of units that held a slot at once.
	MaxInFlight int

	Duration time.Duration
}

// OK reports whether every submitted unit ran and passed.
func (r Report) OK() bool {
	return r.Failed == 0 && r.Skipped == 0
}

// Err summarizes the failures in r, or returns nil if r is OK.
func (r Report) Err() error {
	var errs []error
	if r.Failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %s: %d of %d keys", ErrMismatch, r.Phase, r.Failed, r.Submitted))
	}
	if r.Skipped > 0 {
		errs = append(errs, fmt.Errorf("%w: %s: %d of %d keys not run", ErrIncomplete, r.Phase, r.Skipped, r.Submitted))
	}
	return errors.Join(errs...)
}

package fanout

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/mo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/observe"
	"github.com/jonwraymond/ttlserve/resilience"
)

// DefaultConcurrency is the admission cap used when Config.Concurrency is 0.
const DefaultConcurrency = resilience.DefaultMaxConcurrent

// Store is the part of the cache the harness drives.
type Store interface {
	Get(ctx context.Context, key cache.Key) mo.Option[string]
	Insert(ctx context.Context, key cache.Key, value string)
}

// ValueFunc computes the value expected for a key.
type ValueFunc func(key cache.Key) string

// DefaultValue returns "VAL-<key>".
func DefaultValue(key cache.Key) string {
	return fmt.Sprintf("VAL-%d", key)
}

// Keys returns the inclusive key sequence from..to, or nil if from > to.
func Keys(from, to cache.Key) []cache.Key {
	if from > to {
		return nil
	}
	keys := make([]cache.Key, 0, int(to)-int(from)+1)
	for k := int(from); k <= int(to); k++ {
		keys = append(keys, cache.Key(k))
	}
	return keys
}

// Config configures a Harness.
type Config struct {
	// Concurrency caps how many units may run at once.
	// Default: DefaultConcurrency
	Concurrency int

	// PhaseTimeout bounds how long a phase keeps admitting units. Units
	// admitted before it fires always run to completion.
	// Default: 0 (no timeout)
	PhaseTimeout time.Duration
}

// Harness runs bounded fan-out/fan-in phases against a Store.
type Harness struct {
	store   Store
	cfg     Config
	tracer  observe.Tracer
	metrics observe.Metrics
	logger  observe.Logger
}

// New creates a Harness over store.
func New(store Store, cfg Config, tel observe.Telemetry) (*Harness, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConcurrency, cfg.Concurrency)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	tel = tel.OrNop()
	return &Harness{
		store:   store,
		cfg:     cfg,
		tracer:  tel.Tracer,
		metrics: tel.Metrics,
		logger:  tel.Logger.With(observe.F("component", "fanout")),
	}, nil
}

// Concurrency returns the admission cap in effect.
func (h *Harness) Concurrency() int {
	return h.cfg.Concurrency
}

// Run executes Populate and then Verify over keys.
func (h *Harness) Run(ctx context.Context, keys []cache.Key, value ValueFunc) (populate, verify Report) {
	populate = h.Populate(ctx, keys, value)
	verify = h.Verify(ctx, keys, value)
	return populate, verify
}

// Populate inserts value(key) for every key.
func (h *Harness) Populate(ctx context.Context, keys []cache.Key, value ValueFunc) Report {
	if value == nil {
		value = DefaultValue
	}
	return h.runPhase(ctx, PhasePopulate, keys, func(ctx context.Context, key cache.Key) *Mismatch {
		v := value(key)
		h.store.Insert(ctx, key, v)
		h.logger.Debug(ctx, "inserted into cache", observe.F("key", key), observe.F("value", v))
		return nil
	})
}

// Verify reads every key and compares it with value(key).
func (h *Harness) Verify(ctx context.Context, keys []cache.Key, value ValueFunc) Report {
	if value == nil {
		value = DefaultValue
	}
	return h.runPhase(ctx, PhaseVerify, keys, func(ctx context.Context, key cache.Key) *Mismatch {
		want := value(key)
		got := h.store.Get(ctx, key)
		if v, ok := got.Get(); ok && v == want {
			h.logger.Debug(ctx, "cached value matches expected value", observe.F("key", key), observe.F("value", v))
			return nil
		}
		h.logger.Warn(ctx, "cached value differs from expected value",
			observe.F("key", key),
			observe.F("want", want),
			observe.F("got", got.OrEmpty()),
			observe.F("present", got.IsPresent()),
		)
		return &Mismatch{Key: key, Want: want, Got: got}
	})
}

// unitFunc performs one unit of work and returns a non-nil Mismatch on failure.
type unitFunc func(ctx context.Context, key cache.Key) *Mismatch

func (h *Harness) runPhase(ctx context.Context, phase string, keys []cache.Key, unit unitFunc) Report {
	start := time.Now()
	report := Report{Phase: phase, Submitted: len(keys)}

	admitCtx := ctx
	if h.cfg.PhaseTimeout > 0 {
		var cancel context.CancelFunc
		admitCtx, cancel = context.WithTimeout(ctx, h.cfg.PhaseTimeout)
		defer cancel()
	}

	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: h.cfg.Concurrency})

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	for i, key := range keys {
		if err := bulkhead.Acquire(admitCtx); err != nil {
			report.Skipped = len(keys) - i
			h.logger.Warn(ctx, "phase stopped admitting units",
				observe.F("phase", phase),
				observe.F("skipped", report.Skipped),
				observe.F("error", err),
			)
			for range report.Skipped {
				h.metrics.RecordUnit(ctx, phase, observe.OutcomeSkipped)
			}
			break
		}

		g.Go(func() error {
			defer bulkhead.Release()

			unitCtx, span := h.tracer.StartSpan(ctx, observe.Op{
				Component: "fanout",
				Name:      phase,
				Attrs:     []attribute.KeyValue{attribute.Int("cache.key", int(key))},
			})
			mismatch := unit(unitCtx, key)

			var err error
			outcome := observe.OutcomePass
			if mismatch != nil {
				err = fmt.Errorf("%w: %s", ErrMismatch, mismatch)
				outcome = observe.OutcomeFail
			}
			h.tracer.EndSpan(span, err)
			h.metrics.RecordUnit(unitCtx, phase, outcome)

			mu.Lock()
			if mismatch != nil {
				report.Failed++
				report.Mismatches = append(report.Mismatches, *mismatch)
			} else {
				report.Passed++
			}
			mu.Unlock()
			return nil
		})
	}

	// Join barrier: every admitted unit finishes before the phase returns.
	_ = g.Wait()

	slices.SortFunc(report.Mismatches, func(a, b Mismatch) int {
		return int(a.Key) - int(b.Key)
	})
	report.MaxInFlight = bulkhead.Metrics().MaxActive
	report.Duration = time.Since(start)

	h.logger.Info(ctx, "phase completed",
		observe.F("phase", phase),
		observe.F("submitted", report.Submitted),
		observe.F("passed", report.Passed),
		observe.F("failed", report.Failed),
		observe.F("skipped", report.Skipped),
		observe.F("max_in_flight", report.MaxInFlight),
		observe.F("duration_ms", float64(report.Duration.Microseconds())/1000),
	)
	return report
}

// Command ttlserve runs the TTL cache service.
//
// On start it warms the cache by populating and verifying keys 1..N through
// the bounded fan-out harness, then serves HTTP until SIGINT or SIGTERM, at
// which point it drains in-flight requests and flushes telemetry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/config"
	"github.com/jonwraymond/ttlserve/fanout"
	"github.com/jonwraymond/ttlserve/health"
	"github.com/jonwraymond/ttlserve/observe"
	"github.com/jonwraymond/ttlserve/server"
)

const telemetryFlushTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "ttlserve:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("ttlserve", flag.ContinueOnError)
	cfg, err := config.Load(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
		defer cancel()
		err = errors.Join(err, obs.Shutdown(flushCtx))
	}()

	tel, err := observe.TelemetryFromObserver(obs)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	logger := tel.Logger.With(observe.F("component", "main"))

	store, err := cache.New(cfg.Cache())
	if err != nil {
		return err
	}
	store.Start()
	defer store.Stop()

	unsubscribe := store.OnExpire(func(key cache.Key, _ string) {
		logger.Debug(ctx, "entry expired", observe.F("key", key))
	})
	defer unsubscribe()

	if err := tel.Metrics.ObserveCache(func() int64 { return int64(store.Len()) }); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	readiness := health.NewAggregator()
	readiness.Register(health.NewCacheChecker(store, cfg.MaxEntries))

	if cfg.Warmup {
		if err := warmup(ctx, store, cfg, tel); err != nil {
			return err
		}
	}

	srv, err := server.New(cfg.Server(), store, tel, readiness)
	if err != nil {
		return err
	}

	logger.Info(ctx, "starting",
		observe.F("addr", cfg.Addr),
		observe.F("ttl", cfg.TTL.String()),
		observe.F("concurrency", cfg.Concurrency),
	)
	return srv.Serve(ctx)
}

// warmup populates and verifies the configured key range. Mismatches and
// skipped units are logged; only a harness construction failure is fatal.
func warmup(ctx context.Context, store *cache.Store, cfg config.Config, tel observe.Telemetry) error {
	h, err := fanout.New(store, cfg.Fanout(), tel)
	if err != nil {
		return err
	}

	from, to := cfg.WarmupRange()
	populate, verify := h.Run(ctx, fanout.Keys(from, to), fanout.DefaultValue)

	logger := tel.Logger.With(observe.F("component", "warmup"))
	for _, r := range []fanout.Report{populate, verify} {
		if err := r.Err(); err != nil {
			logger.Warn(ctx, "warmup incomplete", observe.F("phase", r.Phase), observe.F("error", err))
		}
	}
	logger.Info(ctx, "warmup finished",
		observe.F("keys", populate.Submitted),
		observe.F("verified", verify.Passed),
		observe.F("max_in_flight", max(populate.MaxInFlight, verify.MaxInFlight)),
	)
	return nil
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/fanout"
	"github.com/jonwraymond/ttlserve/observe"
	"github.com/jonwraymond/ttlserve/server"
)

// EnvPrefix prefixes every environment variable LoadEnv reads.
const EnvPrefix = "TTLSERVE_"

// DefaultWarmupKeys is how many keys the startup warmup covers (1..N).
const DefaultWarmupKeys = 100

// Config is the full process configuration.
type Config struct {
	// HTTP
	Addr         string
	DrainTimeout time.Duration
	MaxBodyBytes int64

	// Cache
	TTL          time.Duration
	CapacityHint int
	MaxEntries   uint64

	// Harness
	Concurrency  int
	PhaseTimeout time.Duration
	Warmup       bool
	WarmupKeys   int

	// Telemetry
	ServiceName     string
	LogLevel        string
	TracingExporter string
	SamplePct       float64
	MetricsExporter string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            server.DefaultAddr,
		DrainTimeout:    server.DefaultDrainTimeout,
		MaxBodyBytes:    server.DefaultMaxBodyBytes,
		TTL:             cache.DefaultTTL,
		Concurrency:     fanout.DefaultConcurrency,
		Warmup:          true,
		WarmupKeys:      DefaultWarmupKeys,
		ServiceName:     "ttlserve",
		LogLevel:        "info",
		TracingExporter: "none",
		SamplePct:       1.0,
		MetricsExporter: "prometheus",
	}
}

// Validate checks the whole configuration, including every derived
// per-package config, and joins all problems.
func (c Config) Validate() error {
	var errs []error

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency))
	}
	if c.WarmupKeys < 0 || c.WarmupKeys > math.MaxUint16 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWarmupKeys, c.WarmupKeys))
	}
	if err := c.Cache().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Server().Validate(); err != nil {
		errs = append(errs, err)
	}
	obs := c.Observe()
	if err := obs.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Cache returns the store configuration.
func (c Config) Cache() cache.Config {
	return cache.Config{
		TTL:          c.TTL,
		CapacityHint: c.CapacityHint,
		MaxEntries:   c.MaxEntries,
	}
}

// Fanout returns the harness configuration.
func (c Config) Fanout() fanout.Config {
	return fanout.Config{
		Concurrency:  c.Concurrency,
		PhaseTimeout: c.PhaseTimeout,
	}
}

// Server returns the HTTP server configuration. /metrics is exposed only
// with the prometheus exporter.
func (c Config) Server() server.Config {
	return server.Config{
		Addr:              c.Addr,
		DrainTimeout:      c.DrainTimeout,
		ReadHeaderTimeout: server.DefaultReadHeaderTimeout,
		MaxBodyBytes:      c.MaxBodyBytes,
		ExposeMetrics:     c.MetricsExporter == "prometheus",
	}
}

// Observe returns the telemetry configuration.
func (c Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "" && c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  true,
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// WarmupRange returns the inclusive key range of the startup warmup.
func (c Config) WarmupRange() (from, to cache.Key) {
	if c.WarmupKeys <= 0 {
		return 1, 0
	}
	return 1, cache.Key(c.WarmupKeys)
}

// LoadEnv overlays TTLSERVE_* environment variables onto c.
func (c *Config) LoadEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := c.env(name, &errs); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := c.env(name, &errs); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, invalid(name, v, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := c.env(name, &errs); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, invalid(name, v, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := c.env(name, &errs); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, invalid(name, v, err))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Addr)
	dur("DRAIN_TIMEOUT", &c.DrainTimeout)
	dur("TTL", &c.TTL)
	integer("CAPACITY_HINT", &c.CapacityHint)
	integer("CONCURRENCY", &c.Concurrency)
	dur("PHASE_TIMEOUT", &c.PhaseTimeout)
	boolean("WARMUP", &c.Warmup)
	integer("WARMUP_KEYS", &c.WarmupKeys)
	str("SERVICE_NAME", &c.ServiceName)
	str("LOG_LEVEL", &c.LogLevel)
	str("TRACING_EXPORTER", &c.TracingExporter)
	str("METRICS_EXPORTER", &c.MetricsExporter)

	if v, ok := c.env("MAX_ENTRIES", &errs); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, invalid("MAX_ENTRIES", v, err))
		} else {
			c.MaxEntries = n
		}
	}
	if v, ok := c.env("MAX_BODY_BYTES", &errs); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, invalid("MAX_BODY_BYTES", v, err))
		} else {
			c.MaxBodyBytes = n
		}
	}
	if v, ok := c.env("SAMPLE_PCT", &errs); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, invalid("SAMPLE_PCT", v, err))
		} else {
			c.SamplePct = f
		}
	}

	return errors.Join(errs...)
}

// env reads and expands EnvPrefix+name. Empty values count as unset.
func (c *Config) env(name string, errs *[]error) (string, bool) {
	raw, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || raw == "" {
		return "", false
	}
	v, err := expand(raw, os.LookupEnv)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return "", false
	}
	return v, true
}

func invalid(name, value string, err error) error {
	return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidValue, EnvPrefix, name, value, err)
}

// BindFlags registers a flag per setting on fs, defaulting to c's current
// values. Parsing fs writes into c.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "wait for in-flight requests on shutdown (0 = no limit)")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", c.MaxBodyBytes, "maximum POST body size")

	fs.DurationVar(&c.TTL, "ttl", c.TTL, "cache entry lifetime")
	fs.IntVar(&c.CapacityHint, "capacity-hint", c.CapacityHint, "expected key count, sizes shards only")
	fs.Uint64Var(&c.MaxEntries, "max-entries", c.MaxEntries, "bound the cache size (0 = unbounded)")

	fs.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "maximum in-flight harness units")
	fs.DurationVar(&c.PhaseTimeout, "phase-timeout", c.PhaseTimeout, "stop admitting harness units after this long (0 = no limit)")
	fs.BoolVar(&c.Warmup, "warmup", c.Warmup, "populate and verify the cache before serving")
	fs.IntVar(&c.WarmupKeys, "warmup-keys", c.WarmupKeys, "warm keys 1..N")

	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "service name reported to telemetry backends")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug|info|warn|error")
	fs.StringVar(&c.TracingExporter, "tracing-exporter", c.TracingExporter, "otlp|stdout|none")
	fs.Float64Var(&c.SamplePct, "sample-pct", c.SamplePct, "trace sampling ratio 0.0-1.0")
	fs.StringVar(&c.MetricsExporter, "metrics-exporter", c.MetricsExporter, "otlp|prometheus|stdout|none")
}

// Load builds a Config from defaults, the environment and args.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()
	if err := cfg.LoadEnv(); err != nil {
		return Config{}, err
	}
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

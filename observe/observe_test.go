package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "ttlserve",
			Version:     "1.0.0",
			Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.0},
			Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     LoggingConfig{Enabled: true, Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, want: ErrMissingServiceName},
		{name: "unknown tracing exporter", mutate: func(c *Config) { c.Tracing.Exporter = "jaeger" }, want: ErrInvalidTracingExporter},
		{name: "sample pct too high", mutate: func(c *Config) { c.Tracing.SamplePct = 1.5 }, want: ErrInvalidSamplePct},
		{name: "sample pct negative", mutate: func(c *Config) { c.Tracing.SamplePct = -0.1 }, want: ErrInvalidSamplePct},
		{name: "unknown metrics exporter", mutate: func(c *Config) { c.Metrics.Exporter = "statsd" }, want: ErrInvalidMetricsExporter},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, want: ErrInvalidLogLevel},
		{
			name: "disabled subsystems are not validated",
			mutate: func(c *Config) {
				c.Tracing = TracingConfig{Exporter: "bogus"}
				c.Metrics = MetricsConfig{Exporter: "bogus"}
				c.Logging = LoggingConfig{Level: "bogus"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "ttlserve"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	if obs.Tracer() == nil {
		t.Error("expected non-nil tracer")
	}
	if obs.Meter() == nil {
		t.Error("expected non-nil meter")
	}
	if obs.Logger() == nil {
		t.Error("expected non-nil logger")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	var buf bytes.Buffer
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "ttlserve",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Output: &buf},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	tel, err := TelemetryFromObserver(obs)
	if err != nil {
		t.Fatalf("TelemetryFromObserver() error = %v", err)
	}

	ctx, span := tel.Tracer.StartSpan(context.Background(), Op{Component: "test", Name: "op"})
	if !span.SpanContext().IsValid() {
		t.Error("enabled tracing should produce a valid span context")
	}
	tel.Logger.Info(ctx, "hello")
	tel.Tracer.EndSpan(span, nil)

	if buf.Len() == 0 {
		t.Error("enabled logging should write to the configured output")
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Errorf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}

func TestTelemetry_OrNop(t *testing.T) {
	tel := Telemetry{}.OrNop()
	if tel.Tracer == nil || tel.Metrics == nil || tel.Logger == nil {
		t.Fatal("OrNop should fill every instrument")
	}

	_, span := tel.Tracer.StartSpan(context.Background(), Op{Name: "noop"})
	tel.Tracer.EndSpan(span, errors.New("ignored"))
	tel.Metrics.RecordUnit(context.Background(), "populate", OutcomePass)
	if err := tel.Metrics.ObserveCache(func() int64 { return 0 }); err != nil {
		t.Errorf("ObserveCache() error = %v", err)
	}
	if tel.Logger.With(F("k", "v")) == nil {
		t.Error("With should return a non-nil logger")
	}
}

package observe

// Telemetry bundles the instruments a component needs.
type Telemetry struct {
	Tracer  Tracer
	Metrics Metrics
	Logger  Logger
}

// TelemetryFromObserver builds Telemetry on top of an Observer.
func TelemetryFromObserver(obs Observer) (Telemetry, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return Telemetry{}, err
	}

	return Telemetry{
		Tracer:  NewTracer(obs.Tracer()),
		Metrics: metrics,
		Logger:  obs.Logger(),
	}, nil
}

// NopTelemetry returns Telemetry that records nothing.
func NopTelemetry() Telemetry {
	return Telemetry{
		Tracer:  NopTracer(),
		Metrics: NopMetrics(),
		Logger:  NopLogger(),
	}
}

// OrNop fills any nil instrument with its no-op version.
func (t Telemetry) OrNop() Telemetry {
	if t.Tracer == nil {
		t.Tracer = NopTracer()
	}
	if t.Metrics == nil {
		t.Metrics = NopMetrics()
	}
	if t.Logger == nil {
		t.Logger = NopLogger()
	}
	return t
}

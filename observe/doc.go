// Package observe provides the logging, tracing and metrics used by the
// service.
//
// NewObserver builds OpenTelemetry tracer and meter providers from Config and
// a leveled JSON Logger. Telemetry bundles the three for components: the HTTP
// Middleware records one span, one set of request metrics and one log line
// per request, and the fan-out harness records one span and one unit outcome
// per unit of work.
package observe

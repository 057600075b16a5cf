// Package server is the HTTP surface of the TTL cache service.
//
// Routes:
//
//	GET  /healthz  {"content":"foo"}, never touches the cache
//	POST /healthz  read key 0, store the submitted content at key 0,
//	               answer {"content":"<previous> <submitted>"}
//	GET  /readyz   readiness report from a health.Aggregator
//	GET  /metrics  Prometheus exposition, when Config.ExposeMetrics is set
//
// Every response passes through a Catcher, which buffers what the router or
// handler wrote and hands it to a chain of Interceptors before anything
// reaches the wire. The ErrorClassifier interceptor replaces the body of any
// 4xx or 5xx response with a generic, status-derived message, so internal
// error text never leaks to clients.
//
// Two overlapping POST requests may both read the same previous value; the
// last insert to complete wins. Requests are not serialized against each
// other.
//
// Serve runs until its context is cancelled or Shutdown is called, then stops
// accepting connections, flips readiness, and waits up to
// Config.DrainTimeout for in-flight requests.
package server

// Package health reports whether the service is ready to take traffic.
//
// A Checker reports one component's Status. The Aggregator runs every
// registered checker under a shared deadline and folds the results into an
// overall status, which ReadinessHandler serves as JSON on /readyz.
//
// Two checkers cover the service itself:
//
//	gate := health.NewGate()
//	agg := health.NewAggregator()
//	agg.Register(health.NewCacheChecker(store, 0))
//	agg.Register(gate)
//
//	// on shutdown
//	gate.Drain() // /readyz now answers 503
//
// Degraded components keep the service ready; any unhealthy component makes
// it unready.
package health

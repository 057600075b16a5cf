package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/ttlserve/health"
	"github.com/jonwraymond/ttlserve/observe"
)

// unmatchedRoute labels requests no pattern matched.
const unmatchedRoute = "unmatched"

// newMux registers the service routes.
func newMux(h *Handlers, readiness *health.Aggregator, exposeMetrics bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Query)
	mux.HandleFunc("POST /healthz", h.ReadModifyWrite)
	mux.Handle("GET /readyz", health.ReadinessHandler(readiness))
	if exposeMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return mux
}

// routeOf returns the pattern mux would dispatch r to, so metric labels stay
// bounded.
func routeOf(mux *http.ServeMux) observe.RouteFunc {
	return func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return unmatchedRoute
	}
}

// buildHandler layers telemetry over the catcher over the router.
func buildHandler(mux *http.ServeMux, tel observe.Telemetry) http.Handler {
	classifier := NewErrorClassifier(tel.Logger)
	caught := Catcher(classifier)(mux)
	return observe.NewMiddleware(tel, routeOf(mux)).Handler(caught)
}

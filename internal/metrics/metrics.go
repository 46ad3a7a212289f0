// Package metrics exposes Prometheus instrumentation for the runner.
//
// Metrics are package-level collectors registered once at init time, so any
// package can record observations without threading a registry through
// constructors. The /metrics endpoint itself is wired in the server package.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Execution metrics
var (
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_executions_total",
			Help: "Total code executions by outcome",
		},
		[]string{"outcome"},
	)

	ExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runner_execution_duration_seconds",
			Help:    "Wall-clock time of sandbox runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0},
		},
	)

	ExecutionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_executions_active",
			Help: "Executions currently holding a concurrency slot",
		},
	)

	OutputTruncationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_output_truncations_total",
			Help: "Executions whose stdout or stderr hit the output cap",
		},
	)
)

// Transport metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ExecutionsTotal,
		ExecutionDuration,
		ExecutionsActive,
		OutputTruncationsTotal,
		HTTPRequestsTotal,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments every request with a method/path/status counter.
// The path label uses the chi route pattern, not the raw URL, so
// /api/runs/{id} stays a single series regardless of how many IDs are hit.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
	})
}

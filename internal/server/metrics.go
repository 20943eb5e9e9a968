package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "Time spent handling HTTP requests.",
	Buckets: []float64{.005, .025, .1, .5, 1, 2, 5, 10},
}, []string{"path"})

var completionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "completion_latency_seconds",
	Help:    "Latency of completion provider calls.",
	Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30},
})

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rate_limited_requests_total",
	Help: "Requests rejected by the rate limiter.",
})

// metricsMiddleware records a counter and duration histogram per request,
// labelled by the matched route pattern rather than the raw path.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

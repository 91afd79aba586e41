package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callcare_http_requests_total",
		Help: "HTTP requests by method, path pattern and status code.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callcare_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	CallsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callcare_calls_dispatched_total",
		Help: "Calls handed to the voice provider.",
	})

	CallsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callcare_calls_failed_total",
		Help: "Call dispatch attempts that permanently failed.",
	})

	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callcare_webhooks_received_total",
		Help: "Inbound webhook events by type.",
	}, []string{"type"})

	WebhooksDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callcare_webhooks_duplicate_total",
		Help: "Webhook events dropped by the idempotency ledger.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RequestMetrics is chi middleware recording request counts and latency.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := routePattern(r)
		httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		httpDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

// routePattern prefers the chi route pattern over the raw path so ids do
// not blow up label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

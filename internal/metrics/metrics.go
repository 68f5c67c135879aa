// Package metrics collects and exposes Prometheus metrics: domain counters
// recorded by the service layer and HTTP-level request metrics recorded by
// the middleware in this package.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the registered metrics. It satisfies service.Metrics for
// the domain counters.
type Collector struct {
	casesCreated    prometheus.Counter
	targetsAdded    prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewCollector creates a Collector with its own registry. A private
// registry keeps the /metrics output to what we register here, without
// the default registry's global state leaking between tests.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		casesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentguard_cases_created_total",
			Help: "Total number of takedown cases created.",
		}),
		targetsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentguard_targets_added_total",
			Help: "Total number of target URLs attached to cases.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentguard_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentguard_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.casesCreated, c.targetsAdded, c.httpStatus, c.requestDuration)

	return c
}

func (c *Collector) RecordCaseCreated() {
	c.casesCreated.Inc()
}

func (c *Collector) RecordTargetsAdded(count int) {
	c.targetsAdded.Add(float64(count))
}

// Handler returns the /metrics endpoint handler for this collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records status code and latency for every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		c.httpStatus.WithLabelValues(strconv.Itoa(rec.statusCode)).Inc()
		c.requestDuration.Observe(time.Since(start).Seconds())
	})
}

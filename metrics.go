package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type requestMetrics interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
}

// metricsProvider implements requestMetrics and syncer.Metrics
type metricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	syncRuns        *prometheus.CounterVec
	rateLimited     prometheus.Counter
	upserted        prometheus.Counter
}

func newMetricsProvider(reg *prometheus.Registry, snapshotCount func() float64) *metricsProvider {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	m := &metricsProvider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "activetrack_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activetrack_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		syncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "activetrack_sync_runs_total",
			Help: "Total number of sync runs by kind and result",
		}, []string{"kind", "result"}),

		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "activetrack_rate_limited_total",
			Help: "Total number of rate limited vendor responses",
		}),

		upserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "activetrack_snapshots_upserted_total",
			Help: "Total number of snapshots written",
		}),
	}

	if snapshotCount != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "activetrack_snapshots",
			Help: "Number of stored snapshots",
		}, snapshotCount)
	}

	return m
}

func (m *metricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *metricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *metricsProvider) IncRun(kind, result string) {
	m.syncRuns.WithLabelValues(kind, result).Inc()
}

func (m *metricsProvider) IncRateLimited() {
	m.rateLimited.Inc()
}

func (m *metricsProvider) IncUpserted() {
	m.upserted.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware labels requests by their mux pattern so path
// parameters and unknown paths do not grow the label set
func metricsMiddleware(metrics requestMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, time.Since(start))
	})
}

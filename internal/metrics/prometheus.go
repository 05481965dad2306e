// Package metrics exposes Prometheus collectors for classification and
// adaptive weighting.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trendpulse"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Classifications    *prometheus.CounterVec
	ClassifyDuration   prometheus.Histogram
	SeriesLength       prometheus.Histogram
	PerformanceReports *prometheus.CounterVec
	Weights            *prometheus.GaugeVec
	Checkpoints        *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New builds the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Total number of series classified",
			},
			[]string{"variant", "pattern_type"},
		),

		ClassifyDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classify_duration_seconds",
				Help:      "Time spent classifying one series",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		SeriesLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "series_length",
				Help:      "Number of points per classified series",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 12),
			},
		),

		PerformanceReports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "performance_reports_total",
				Help:      "Total number of performance observations applied",
			},
			[]string{"content_type", "metric"},
		),

		Weights: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "weight",
				Help:      "Current adaptive weight per content type and metric",
			},
			[]string{"content_type", "metric"},
		),

		Checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weight_checkpoints_total",
				Help:      "Weight checkpoint operations",
			},
			[]string{"operation", "status"}, // operation: save|load, status: success|error
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Classifications,
		m.ClassifyDuration,
		m.SeriesLength,
		m.PerformanceReports,
		m.Weights,
		m.Checkpoints,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Registry is exposed for tests and for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveClassification(variant, patternType string, points int, elapsed time.Duration) {
	m.Classifications.WithLabelValues(variant, patternType).Inc()
	m.ClassifyDuration.Observe(elapsed.Seconds())
	m.SeriesLength.Observe(float64(points))
}

// ObserveWeights counts one report and publishes the resulting vector. An
// empty metric only refreshes the gauges, as after a reset or restore.
func (m *Metrics) ObserveWeights(contentType, metric string, weights map[string]float64) {
	if metric != "" {
		m.PerformanceReports.WithLabelValues(contentType, metric).Inc()
	}
	for name, w := range weights {
		m.Weights.WithLabelValues(contentType, name).Set(w)
	}
}

func (m *Metrics) ObserveCheckpoint(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Checkpoints.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

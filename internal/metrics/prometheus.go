// Package metrics provides Prometheus metrics for the calculator service
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Calculation metrics
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedspeed_calculations_total",
			Help: "Total number of calculations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedspeed_calculation_duration_seconds",
			Help:    "Time spent inside a calculation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		},
		[]string{"operation"},
	)

	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedspeed_warnings_total",
			Help: "Total number of cautionary results returned",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedspeed_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedspeed_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Batch metrics
	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedspeed_batch_items_total",
			Help: "Total number of batch or imported rows processed",
		},
		[]string{"operation", "source", "status"},
	)
)

// Status values for CalculationsTotal
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusNotFound = "not_found"
)

// RecordCalculation records one calculation outcome
func RecordCalculation(operation, status string, caution bool, duration time.Duration) {
	CalculationsTotal.WithLabelValues(operation, status).Inc()
	CalculationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if caution {
		WarningsTotal.WithLabelValues(operation).Inc()
	}
}

// RecordRequest records an HTTP request
func RecordRequest(method, route, code string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, code).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordBatchItem records a processed batch row
func RecordBatchItem(operation, source string, ok bool) {
	status := StatusOK
	if !ok {
		status = StatusInvalid
	}
	BatchItems.WithLabelValues(operation, source, status).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

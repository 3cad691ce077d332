// Package metrics provides the Prometheus implementation of the
// MetricsCollector port for monitoring model calls and evaluation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"charbench/internal/ports"
)

// PrometheusCollector implements ports.MetricsCollector on the global
// Prometheus registry. It tracks model request latency and volume,
// token consumption, and evaluation outcomes.
type PrometheusCollector struct {
	requestLatency   *prometheus.HistogramVec
	requestCounter   *prometheus.CounterVec
	tokenCounter     *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	gauges           *prometheus.GaugeVec
}

// NewPrometheusCollector creates a collector and registers its metrics
// in the global Prometheus registry. Call it at most once per process.
func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		requestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "charbench_model_request_seconds",
				Help:    "Latency of model provider requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charbench_model_requests_total",
				Help: "Total model provider requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		tokenCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charbench_model_tokens_total",
				Help: "Total tokens consumed across model requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charbench_operations_total",
				Help: "Total pipeline operations by status.",
			},
			[]string{"operation", "status"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "charbench_state",
				Help: "Current pipeline state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation duration in the request latency
// histogram.
func (pc *PrometheusCollector) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pc.requestLatency.WithLabelValues(
		labelOr(labels, "provider", operation),
		labelOr(labels, "model", "unknown"),
		labelOr(labels, "status", "success"),
	).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name.
// Token metrics route to the token counter, model request metrics to
// the request counter, and everything else to the operation counter.
func (pc *PrometheusCollector) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "model_tokens_total":
		pc.tokenCounter.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "token_type", "unknown"),
		).Add(value)
	case "model_requests_total":
		pc.requestCounter.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "status", "success"),
		).Add(value)
	default:
		pc.operationCounter.WithLabelValues(
			metric,
			labelOr(labels, "status", "success"),
		).Add(value)
	}
}

// RecordGauge sets a named gauge value.
func (pc *PrometheusCollector) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pc.gauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value in the request latency histogram.
func (pc *PrometheusCollector) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pc.requestLatency.WithLabelValues(
		labelOr(labels, "provider", metric),
		labelOr(labels, "model", "unknown"),
		labelOr(labels, "status", "success"),
	).Observe(value)
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Compile-time verification that PrometheusCollector implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusCollector)(nil)

// Package ports defines the interfaces the evaluation core depends on.
// Implementations live under infrastructure/; the core packages accept
// these interfaces and never import provider SDKs directly.
package ports

import (
	"context"
	"time"

	"charbench/internal/domain"
)

// ModelClient is the contract for one chat-capable model endpoint, used
// both for judging conversations and for generating them.
// Implementations handle provider-specific authentication, request
// formatting, and error classification.
type ModelClient interface {
	// Complete sends a system prompt and user prompt to the model and
	// returns the generated text plus call provenance (model, token
	// usage, latency, and any reasoning or thinking content).
	//
	// The options map carries provider-tunable parameters without
	// widening the interface. Recognized keys include:
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "model": string (overrides the client's default)
	Complete(ctx context.Context, system, prompt string, options map[string]any) (string, domain.Provenance, error)

	// GetModel returns the model identifier this client targets, for
	// logging and result provenance.
	GetModel() string
}

// MetricsCollector is the sink for operational metrics. Implementations
// integrate with observability backends such as Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a distribution metric.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

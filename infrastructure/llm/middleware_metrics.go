package llm

import (
	"context"
	"errors"
	"time"

	"charbench/internal/ports"
)

// metricsLLM records request latency, counts, and token usage.
type metricsLLM struct {
	next      CoreLLM
	provider  string
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to
// the collector under the given provider label.
func MetricsMiddleware(provider string, collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			provider:  provider,
			collector: collector,
		}
	}
}

// DoRequest executes the request while recording latency, outcome, and
// token counters.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	start := time.Now()
	resp, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"status":   m.status(ctx, err),
	}

	if m.collector != nil {
		m.collector.RecordHistogram("model_request_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("model_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("model_tokens_total", float64(resp.TokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("model_tokens_total", float64(resp.TokensOut), labels)
		}
	}

	return resp, err
}

func (m *metricsLLM) status(ctx context.Context, err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Type {
		case ErrorTypeRateLimit:
			return "rate_limited"
		case ErrorTypeTimeout:
			return "timeout"
		}
	}
	return "error"
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }

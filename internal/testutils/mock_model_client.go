// Package testutils provides deterministic test doubles shared across
// packages, chiefly a scriptable ModelClient.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"charbench/internal/domain"
	"charbench/internal/ports"
)

var _ ports.ModelClient = (*MockModelClient)(nil)

// MockModelClient is a scriptable ports.ModelClient. Responses can be
// keyed on prompt substrings, queued in order, or computed by a
// function. It is safe for concurrent use.
type MockModelClient struct {
	mu sync.Mutex

	model     string
	provider  string
	responses map[string]string
	queue     []string
	err       error

	// RespondFunc, when set, takes precedence over patterns and queue.
	RespondFunc func(ctx context.Context, system, prompt string) (string, error)

	calls []MockCall
}

// MockCall records a single Complete invocation.
type MockCall struct {
	System string
	Prompt string
}

// NewMockModelClient creates a mock with the given provider and model
// identity stamped into provenance.
func NewMockModelClient(provider, model string) *MockModelClient {
	return &MockModelClient{
		provider:  provider,
		model:     model,
		responses: make(map[string]string),
	}
}

// WithResponse registers a canned response returned when the prompt
// contains pattern. Returns the client for chaining.
func (m *MockModelClient) WithResponse(pattern, response string) *MockModelClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = response
	return m
}

// WithQueue sets responses returned in order, one per call, after
// pattern matching fails. The last response repeats once the queue is
// exhausted.
func (m *MockModelClient) WithQueue(responses ...string) *MockModelClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = responses
	return m
}

// WithError makes every call fail with err.
func (m *MockModelClient) WithError(err error) *MockModelClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete implements ports.ModelClient.
func (m *MockModelClient) Complete(
	ctx context.Context, system, prompt string, options map[string]any,
) (string, domain.Provenance, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Provenance{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{System: system, Prompt: prompt})

	provenance := domain.Provenance{
		Provider:     m.provider,
		Model:        m.model,
		ResponseTime: time.Millisecond,
		Usage:        domain.TokenUsage{Input: len(prompt) / 4, Output: 16},
	}

	if m.err != nil {
		return "", domain.Provenance{}, m.err
	}
	if m.RespondFunc != nil {
		content, err := m.RespondFunc(ctx, system, prompt)
		return content, provenance, err
	}
	for pattern, response := range m.responses {
		if strings.Contains(prompt, pattern) {
			return response, provenance, nil
		}
	}
	if len(m.queue) > 0 {
		idx := len(m.calls) - 1
		if idx >= len(m.queue) {
			idx = len(m.queue) - 1
		}
		return m.queue[idx], provenance, nil
	}
	return "", domain.Provenance{}, fmt.Errorf("no mock response for prompt: %.60s", prompt)
}

// GetModel implements ports.ModelClient.
func (m *MockModelClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// Calls returns a copy of the recorded invocations.
func (m *MockModelClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete invocations so far.
func (m *MockModelClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// EvaluationJSON builds a well-formed judge response with the given
// uniform score and reasoning text for every criterion. Handy default
// payload for judge mocks.
func EvaluationJSON(score int, reasoning string) string {
	var scores, reasons []string
	for _, c := range domain.Criteria() {
		scores = append(scores, fmt.Sprintf("%q: %d", string(c), score))
		reasons = append(reasons, fmt.Sprintf("%q: %q", string(c), reasoning))
	}
	return fmt.Sprintf(`{
  "scores": {%s},
  "reasoning": {%s},
  "overall_assessment": "Consistent performance across the conversation.",
  "key_strengths": ["vivid narration"],
  "key_weaknesses": ["pacing"],
  "improvement_recommendations": ["vary sentence rhythm"]
}`, strings.Join(scores, ", "), strings.Join(reasons, ", "))
}

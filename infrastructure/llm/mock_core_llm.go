package llm

import (
	"context"
	"sync"
)

// MockCoreLLM is a configurable CoreLLM stub for middleware and client
// tests. DoRequestFunc supplies responses; calls are counted for
// asserting retry and rate-limit behavior.
type MockCoreLLM struct {
	// DoRequestFunc handles each request. Nil returns an empty response.
	DoRequestFunc func(ctx context.Context, prompt string, opts map[string]any) (Response, error)

	mu    sync.Mutex
	model string
	calls int
}

// NewMockCoreLLM creates a mock reporting the given model name.
func NewMockCoreLLM(model string) *MockCoreLLM {
	return &MockCoreLLM{model: model}
}

// DoRequest invokes DoRequestFunc and counts the call.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DoRequestFunc == nil {
		return Response{}, nil
	}
	return m.DoRequestFunc(ctx, prompt, opts)
}

// Calls returns the number of requests received.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

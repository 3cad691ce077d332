package llm

import "sync"

// DefaultMaxTokens bounds response length when the caller does not
// specify max_tokens. Judge responses are structured JSON and character
// replies are capped by prompt instructions, so this is generous.
const DefaultMaxTokens = 4096

// BaseProvider provides the thread-safe model bookkeeping shared by all
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
// Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized parameter set parsed from the
// generic options map before building a provider request.
type RequestOptions struct {
	// MaxTokens caps the generated response length.
	MaxTokens int
	// Model identifies the model for this request.
	Model string
	// Temperature controls sampling randomness. Nil means use the
	// provider default.
	Temperature *float64
	// TopP configures nucleus sampling. Nil means use the provider
	// default.
	TopP *float64
	// System carries the system prompt, empty when none was given.
	System string
	// Extra collects provider-specific options not covered above.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates request parameters from an
// options map, applying defaults for missing or invalid entries.
// Unrecognized keys are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p":
			// Already handled.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// TokenCounter estimates token counts when the provider response omits
// usage data.
type TokenCounter struct {
	// CharactersPerToken is the average characters-per-token ratio used
	// for estimation. The default approximates English text.
	CharactersPerToken float64
}

// NewTokenCounter returns a counter with the default ratio for English
// text.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens approximates the token count of text using the
// configured ratio.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount returns the reported count when positive, falling back
// to estimation from the text.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}

// Package llm provides the model clients charbench uses to talk to chat
// providers, both for generating character conversations and for judging
// them. Provider-specific APIs (OpenAI, Anthropic, Google, DeepSeek via
// the OpenAI-compatible endpoint) are abstracted behind a common CoreLLM
// interface, and cross-cutting concerns such as retries, rate limiting,
// timeouts, metrics, and tracing compose around any provider through a
// middleware chain.
//
// Basic usage:
//
//	client, err := llm.NewClient("anthropic", llm.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:  "claude-sonnet-4-20250514",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	        llm.RateLimitMiddleware(5, 10),
//	    },
//	})
//	text, prov, err := client.Complete(ctx, systemPrompt, userPrompt, nil)
//
// Most callers go through the Registry instead, which resolves API keys
// from the environment and caches one client per provider/model pair.
package llm

import (
	"context"
	"fmt"
	"time"

	"charbench/internal/domain"
	"charbench/internal/ports"
)

// Response is the raw result of one provider request: the generated
// text, token accounting, and any reasoning or thinking content the
// model emitted alongside the answer.
type Response struct {
	// Content is the generated answer text.
	Content string

	// TokensIn and TokensOut hold the token usage reported by the
	// provider, falling back to estimates when the API omits them.
	TokensIn  int
	TokensOut int

	// ReasoningContent holds chain-of-thought text from reasoner models
	// (DeepSeek's reasoning_content field). Empty for other models.
	ReasoningContent string

	// ThinkingContent holds extended-thinking text from Anthropic models
	// when thinking is enabled. Empty otherwise.
	ThinkingContent string
}

// CoreLLM is the minimal surface a provider must implement. Middleware
// wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response.
	// The opts map carries provider-tunable parameters such as
	// "temperature", "max_tokens", "system", and "model".
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (Response, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior such as
// retries, rate limiting, or metrics without touching provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds everything needed to construct a provider client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model for requests. Each provider has its own
	// default when empty.
	Model string

	// BaseURL overrides the provider's default endpoint. DeepSeek uses
	// this to point the OpenAI-compatible client at its API.
	BaseURL string

	// Timeout bounds individual requests. Zero means no client-side
	// timeout.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client wraps a middleware-composed CoreLLM and adapts it to the
// ports.ModelClient contract, attaching call provenance to every
// completion.
type Client struct {
	core     CoreLLM
	provider string
}

// NewClient builds a client for the given provider type, applying the
// configured middleware chain around the provider implementation.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	// Apply middleware in reverse so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core, provider: providerType}, nil
}

// Complete sends the system and user prompts to the model and returns
// the generated text with full call provenance.
func (c *Client) Complete(
	ctx context.Context,
	system, prompt string,
	options map[string]any,
) (string, domain.Provenance, error) {
	opts := make(map[string]any, len(options)+1)
	for k, v := range options {
		opts[k] = v
	}
	if system != "" {
		opts["system"] = system
	}

	start := time.Now()
	resp, err := c.core.DoRequest(ctx, prompt, opts)
	prov := domain.Provenance{
		Provider:         c.provider,
		Model:            c.core.GetModel(),
		ResponseTime:     time.Since(start),
		Usage:            domain.TokenUsage{Input: resp.TokensIn, Output: resp.TokensOut},
		ReasoningContent: resp.ReasoningContent,
		ThinkingContent:  resp.ThinkingContent,
	}
	if err != nil {
		return "", prov, err
	}
	return resp.Content, prov, nil
}

// GetModel returns the model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SetModel updates the model on the underlying provider.
func (c *Client) SetModel(model string) { c.core.SetModel(model) }

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories maps provider type names to their constructors.
// Providers register themselves in init.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider constructor under a type
// name, enabling custom providers without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// Compile-time verification that Client implements ModelClient.
var _ ports.ModelClient = (*Client)(nil)

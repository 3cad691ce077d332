// registry.go implements centralized multi-provider client management.
// The registry resolves API keys from the environment, validates model
// names, and lazily creates one middleware-wrapped client per
// provider/model pair. Judges and the conversation generator both pull
// their clients from here by short provider name ("claude", "gpt",
// "deepseek", "gemini") or by "provider/model" spec.
package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"charbench/internal/ports"
)

// Registry manages model clients across providers with shared default
// middleware and timeouts. Clients are created lazily and cached per
// provider/model pair.
type Registry struct {
	// providers maps short provider names to their configuration.
	providers map[string]ProviderConfig
	// clients caches created clients keyed by "provider/model".
	clients map[string]ports.ModelClient
	// defaultProvider is used when no provider is specified.
	defaultProvider string
	// defaultMiddleware is applied to every created client before any
	// provider-specific middleware.
	defaultMiddleware []Middleware
	// defaultTimeout bounds requests for every created client.
	defaultTimeout time.Duration

	mu sync.RWMutex
}

// ProviderConfig describes one provider entry in the registry.
type ProviderConfig struct {
	// Type selects the provider implementation (openai, anthropic,
	// google, deepseek).
	Type string
	// EnvVar names the environment variable holding the API key.
	EnvVar string
	// DefaultModel is used when a spec names only the provider.
	DefaultModel string
	// SupportedModels restricts model names when non-empty.
	SupportedModels []string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// Middleware is provider-specific middleware appended after the
	// registry defaults.
	Middleware []Middleware
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Providers defines the available providers. Nil means
	// DefaultProviders.
	Providers map[string]ProviderConfig
	// DefaultProvider is used when a caller asks for the default client.
	DefaultProvider string
	// DefaultTimeout bounds requests for all created clients.
	DefaultTimeout time.Duration
	// DefaultMiddleware is applied to all created clients.
	DefaultMiddleware []Middleware
}

// DefaultProviders maps the short provider names used throughout
// charbench to their implementations and environment variables.
var DefaultProviders = map[string]ProviderConfig{
	"gpt": {
		Type:         "openai",
		EnvVar:       "OPENAI_API_KEY",
		DefaultModel: OpenAIDefaultModel,
		SupportedModels: []string{
			"gpt-4.1", "gpt-4.1-mini", "gpt-4.1-nano",
			"gpt-4o", "gpt-4o-mini",
			"gpt-4", "gpt-4-turbo", "gpt-3.5-turbo",
			"o4-mini", "o3", "o3-mini",
		},
	},
	"claude": {
		Type:         "anthropic",
		EnvVar:       "ANTHROPIC_API_KEY",
		DefaultModel: AnthropicDefaultModel,
		SupportedModels: []string{
			"claude-opus-4-20250514", "claude-sonnet-4-20250514",
			"claude-3-7-sonnet-20250219",
			"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022",
		},
	},
	"deepseek": {
		Type:         "deepseek",
		EnvVar:       "DEEPSEEK_API_KEY",
		DefaultModel: DeepSeekDefaultModel,
		SupportedModels: []string{
			"deepseek-reasoner", "deepseek-chat",
		},
		BaseURL: DeepSeekBaseURL,
	},
	"gemini": {
		Type:         "google",
		EnvVar:       "GOOGLE_API_KEY",
		DefaultModel: GoogleDefaultModel,
		SupportedModels: []string{
			"gemini-2.5-pro", "gemini-2.5-flash",
			"gemini-2.0-flash", "gemini-2.0-flash-lite",
			"gemini-1.5-pro", "gemini-1.5-flash",
		},
	},
}

// NewRegistry creates a registry from the given configuration.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	providers := config.Providers
	if providers == nil {
		providers = DefaultProviders
	}

	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider cannot be empty")
	}

	if _, exists := providers[config.DefaultProvider]; !exists {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", config.DefaultProvider)
	}

	return &Registry{
		providers:         providers,
		clients:           make(map[string]ports.ModelClient),
		defaultProvider:   config.DefaultProvider,
		defaultMiddleware: config.DefaultMiddleware,
		defaultTimeout:    config.DefaultTimeout,
	}, nil
}

// GetDefaultClient returns a client for the default provider with its
// default model.
func (r *Registry) GetDefaultClient() (ports.ModelClient, error) {
	providerConfig, exists := r.providers[r.defaultProvider]
	if !exists {
		return nil, fmt.Errorf("default provider %q not found in configuration", r.defaultProvider)
	}
	return r.GetClient(r.defaultProvider + "/" + providerConfig.DefaultModel)
}

// GetClient retrieves a client by "provider" or "provider/model" spec,
// creating and caching it on first use.
func (r *Registry) GetClient(spec string) (ports.ModelClient, error) {
	if spec == "" {
		return nil, fmt.Errorf("provider specification cannot be empty")
	}

	provider, model := r.parseSpec(spec)
	key := r.buildCacheKey(provider, model)

	r.mu.RLock()
	if client, exists := r.clients[key]; exists {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.clients[key]; exists {
		return client, nil
	}

	client, err := r.createClient(provider, model)
	if err != nil {
		return nil, err
	}

	r.clients[key] = client
	return client, nil
}

// RegisterModelClient places a pre-built client in the cache under the
// given spec, bypassing environment lookup. Tests use this to inject
// deterministic clients.
func (r *Registry) RegisterModelClient(spec string, client ports.ModelClient) {
	provider, model := r.parseSpec(spec)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[r.buildCacheKey(provider, model)] = client
}

// AvailableProviders returns the configured provider names whose API
// key environment variables are set, sorted for stable output.
func (r *Registry) AvailableProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []string
	for name, cfg := range r.providers {
		if os.Getenv(cfg.EnvVar) != "" {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// KnownProviders returns every configured provider name, sorted.
func (r *Registry) KnownProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseSpec splits "provider/model" into its parts, substituting the
// provider's default model when the spec names only a provider.
func (r *Registry) parseSpec(spec string) (provider, model string) {
	parts := strings.SplitN(spec, "/", 2)
	provider = parts[0]

	if len(parts) > 1 {
		model = parts[1]
	} else if providerConfig, ok := r.providers[provider]; ok {
		model = providerConfig.DefaultModel
	}

	return
}

func (r *Registry) buildCacheKey(provider, model string) string {
	if model == "" {
		return provider
	}
	return provider + "/" + model
}

// createClient resolves the API key from the environment, validates the
// model, and builds a middleware-wrapped client.
func (r *Registry) createClient(provider, model string) (ports.ModelClient, error) {
	providerConfig, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	if len(providerConfig.SupportedModels) > 0 && !containsString(providerConfig.SupportedModels, model) {
		return nil, fmt.Errorf("model %q is not supported by provider %q, supported models: %v",
			model, provider, providerConfig.SupportedModels)
	}

	apiKey := os.Getenv(providerConfig.EnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set for provider %q", providerConfig.EnvVar, provider)
	}

	config := ClientConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: providerConfig.BaseURL,
		Timeout: r.defaultTimeout,
	}

	// The timeout sits outermost so it bounds the whole chain,
	// retries included, regardless of whether the provider's own
	// transport honors ClientConfig.Timeout.
	if r.defaultTimeout > 0 {
		config.Middleware = append(config.Middleware, TimeoutMiddleware(r.defaultTimeout))
	}
	config.Middleware = append(config.Middleware, r.defaultMiddleware...)
	config.Middleware = append(config.Middleware, providerConfig.Middleware...)

	return NewClient(providerConfig.Type, config)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

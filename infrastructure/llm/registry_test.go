package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charbench/internal/domain"
	"charbench/internal/ports"
)

type staticModelClient struct{ model string }

func (s *staticModelClient) Complete(context.Context, string, string, map[string]any) (string, domain.Provenance, error) {
	return "static", domain.Provenance{Model: s.model}, nil
}

func (s *staticModelClient) GetModel() string { return s.model }

func TestNewRegistryValidation(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider cannot be empty")

	_, err = NewRegistry(RegistryConfig{DefaultProvider: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in providers configuration")
}

func TestRegistryParseSpec(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "claude"})
	require.NoError(t, err)

	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"claude", "claude", AnthropicDefaultModel},
		{"gpt/gpt-4o", "gpt", "gpt-4o"},
		{"deepseek", "deepseek", DeepSeekDefaultModel},
		{"unknown-provider", "unknown-provider", ""},
	}

	for _, tt := range tests {
		provider, model := registry.parseSpec(tt.spec)
		assert.Equal(t, tt.wantProvider, provider, "spec %q", tt.spec)
		assert.Equal(t, tt.wantModel, model, "spec %q", tt.spec)
	}
}

func TestRegistryGetClientUnknownProvider(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "gpt"})
	require.NoError(t, err)

	_, err = registry.GetClient("mystery/model-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "mystery"`)
}

func TestRegistryGetClientUnsupportedModel(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "gpt"})
	require.NoError(t, err)

	_, err = registry.GetClient("gpt/made-up-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported by provider")
}

func TestRegistryGetClientMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "gpt"})
	require.NoError(t, err)

	_, err = registry.GetClient("gpt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestRegistryGetClientCachesPerModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "gpt"})
	require.NoError(t, err)

	first, err := registry.GetClient("gpt/gpt-4o")
	require.NoError(t, err)

	second, err := registry.GetClient("gpt/gpt-4o")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := registry.GetClient("gpt/gpt-4o-mini")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestRegistryRegisterModelClient(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "claude"})
	require.NoError(t, err)

	injected := &staticModelClient{model: "stub-model"}
	registry.RegisterModelClient("claude", injected)

	client, err := registry.GetClient("claude")
	require.NoError(t, err)
	assert.Same(t, ports.ModelClient(injected), client)
}

func TestRegistryAvailableProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "k")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	registry, err := NewRegistry(RegistryConfig{DefaultProvider: "gpt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "gpt"}, registry.AvailableProviders())
	assert.Equal(t, []string{"claude", "deepseek", "gemini", "gpt"}, registry.KnownProviders())
}

func TestRegistryDefaultTimeoutBoundsRequests(t *testing.T) {
	RegisterProviderFactory("hanging", func(config ClientConfig) (CoreLLM, error) {
		mock := NewMockCoreLLM(config.Model)
		mock.DoRequestFunc = func(ctx context.Context, _ string, _ map[string]any) (Response, error) {
			<-ctx.Done()
			return Response{}, ctx.Err()
		}
		return mock, nil
	})
	t.Setenv("HANGING_API_KEY", "test-key")

	registry, err := NewRegistry(RegistryConfig{
		DefaultProvider: "hang",
		DefaultTimeout:  50 * time.Millisecond,
		Providers: map[string]ProviderConfig{
			"hang": {Type: "hanging", EnvVar: "HANGING_API_KEY", DefaultModel: "hang-1"},
		},
	})
	require.NoError(t, err)

	client, err := registry.GetClient("hang")
	require.NoError(t, err)

	start := time.Now()
	_, _, err = client.Complete(context.Background(), "", "prompt", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

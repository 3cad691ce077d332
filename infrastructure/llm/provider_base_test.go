package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]any
		want func(t *testing.T, options RequestOptions)
	}{
		{
			name: "nil options use defaults",
			opts: nil,
			want: func(t *testing.T, options RequestOptions) {
				assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
				assert.Equal(t, "default-model", options.Model)
				assert.Nil(t, options.Temperature)
				assert.Nil(t, options.TopP)
				assert.Empty(t, options.System)
			},
		},
		{
			name: "standard options parsed",
			opts: map[string]any{
				"max_tokens":  1024,
				"model":       "other-model",
				"temperature": 0.3,
				"top_p":       0.9,
				"system":      "be brief",
			},
			want: func(t *testing.T, options RequestOptions) {
				assert.Equal(t, 1024, options.MaxTokens)
				assert.Equal(t, "other-model", options.Model)
				assert.Equal(t, 0.3, *options.Temperature)
				assert.Equal(t, 0.9, *options.TopP)
				assert.Equal(t, "be brief", options.System)
			},
		},
		{
			name: "invalid values fall back to defaults",
			opts: map[string]any{
				"max_tokens":  -5,
				"model":       "",
				"temperature": 3.5,
			},
			want: func(t *testing.T, options RequestOptions) {
				assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
				assert.Equal(t, "default-model", options.Model)
				assert.Nil(t, options.Temperature)
			},
		},
		{
			name: "unrecognized keys collected into Extra",
			opts: map[string]any{
				"thinking_budget": 2048,
				"top_k":           20,
			},
			want: func(t *testing.T, options RequestOptions) {
				assert.Equal(t, 2048, options.Extra["thinking_budget"])
				assert.Equal(t, 20, options.Extra["top_k"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, ParseRequestOptions(tt.opts, "default-model"))
		})
	}
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()
	assert.Equal(t, 0, tc.EstimateTokens(""))
	assert.Equal(t, 3, tc.EstimateTokens("hello world!"))

	assert.Equal(t, 42, tc.GetTokenCount(42, "ignored"))
	assert.Equal(t, 3, tc.GetTokenCount(0, "hello world!"))
}

func TestBaseProviderModel(t *testing.T) {
	base := &BaseProvider{model: "initial"}
	assert.Equal(t, "initial", base.GetModel())

	base.SetModel("updated")
	assert.Equal(t, "updated", base.GetModel())
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty is valid", "", false},
		{"https", "https://api.deepseek.com/v1", false},
		{"http", "http://localhost:8080", false},
		{"no scheme", "api.example.com", true},
		{"bad scheme", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

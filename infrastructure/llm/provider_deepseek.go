package llm

// DeepSeek provider constants. DeepSeek exposes an OpenAI-compatible
// chat completions API, so the provider reuses the OpenAI client with a
// different base URL. Reasoner models return their chain of thought in
// the reasoning_content field, which DoRequest surfaces on Response.
const (
	// DeepSeekDefaultModel is the default DeepSeek model.
	DeepSeekDefaultModel = "deepseek-reasoner"

	// DeepSeekBaseURL is the OpenAI-compatible DeepSeek endpoint.
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
)

func init() {
	RegisterProviderFactory("deepseek", newDeepSeekProvider)
}

func newDeepSeekProvider(config ClientConfig) (CoreLLM, error) {
	if config.BaseURL == "" {
		config.BaseURL = DeepSeekBaseURL
	}
	return newOpenAICompatProvider("deepseek", DeepSeekDefaultModel, config)
}

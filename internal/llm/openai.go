package llm

import (
	"context"
	"net/http"
	"strings"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
}

type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAI(cfg OpenAIConfig, client *http.Client) *OpenAI {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenAI{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

func (o *OpenAI) Name() string  { return ProviderOpenAI }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) IsConfigured() bool {
	return o.apiKey != ""
}

func (o *OpenAI) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !o.IsConfigured() {
		return "", &ConfigError{Provider: ProviderOpenAI, Reason: "OPENAI_API_KEY is not set"}
	}
	return generate(ProviderOpenAI, func() (string, error) {
		headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
		return chatCompletion(ctx, o.client, o.baseURL+"/chat/completions", headers, o.model, systemPrompt, userMessage)
	})
}

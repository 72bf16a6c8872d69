package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultOllamaModel   = "llama3.1"
	defaultOllamaBaseURL = "http://localhost:11434"
	// Ollama ignores the key but its OpenAI-compatible endpoint expects one.
	ollamaPlaceholderKey = "ollama"
)

type OllamaConfig struct {
	Model   string
	BaseURL string
}

// Ollama talks to a local server through its OpenAI-compatible /v1 API. No
// credentials are needed.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewOllama(cfg OllamaConfig, client *http.Client) *Ollama {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOllamaModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Ollama{model: model, baseURL: baseURL, client: client}
}

func (o *Ollama) Name() string  { return ProviderOllama }
func (o *Ollama) Model() string { return o.model }

func (o *Ollama) IsConfigured() bool {
	if o.model == "" {
		return false
	}
	parsed, err := url.Parse(o.baseURL)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

func (o *Ollama) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !o.IsConfigured() {
		return "", &ConfigError{Provider: ProviderOllama, Reason: "OLLAMA_BASE_URL must be an absolute URL"}
	}
	return generate(ProviderOllama, func() (string, error) {
		headers := map[string]string{"Authorization": "Bearer " + ollamaPlaceholderKey}
		return chatCompletion(ctx, o.client, o.baseURL+"/v1/chat/completions", headers, o.model, systemPrompt, userMessage)
	})
}

// Package llm holds the text-generation backends used to turn natural language
// into DuckDB SQL. Every backend sends a single non-streaming chat completion
// with deterministic sampling and returns the trimmed text of the first answer.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/duckmesh/eurostat-mcp/internal/config"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAzure     = "azure"
)

const (
	maxOutputTokens = 2000
	temperature     = 0
	defaultTimeout  = 120 * time.Second
)

var providerKeys = []string{ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderAzure}

type Provider interface {
	// Name returns the factory key of the backend.
	Name() string
	// Model returns the model identifier sent to the backend.
	Model() string
	// IsConfigured reports whether all required settings are present. It never
	// touches the network.
	IsConfigured() bool
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

type Config struct {
	// HTTPClient is shared by every backend. When nil a client with Timeout is
	// created.
	HTTPClient *http.Client
	Timeout    time.Duration
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Ollama     OllamaConfig
	Azure      AzureConfig
}

// New resolves a provider key (case-insensitive) to a backend.
func New(key string, cfg Config) (Provider, error) {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	switch strings.ToLower(strings.TrimSpace(key)) {
	case ProviderAnthropic:
		return NewAnthropic(cfg.Anthropic, client), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.OpenAI, client), nil
	case ProviderOllama:
		return NewOllama(cfg.Ollama, client), nil
	case ProviderAzure:
		return NewAzure(cfg.Azure, client), nil
	default:
		return nil, &ConfigError{
			Reason: fmt.Sprintf("unknown provider type: %q. Available providers: %s", key, strings.Join(Keys(), ", ")),
		}
	}
}

// Keys lists the accepted provider keys in a stable order.
func Keys() []string {
	return append([]string(nil), providerKeys...)
}

func displayName(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderOllama:
		return "Ollama"
	case ProviderAzure:
		return "Azure OpenAI"
	default:
		return provider
	}
}

// ConfigFrom maps loaded settings onto backend configuration.
func ConfigFrom(cfg config.LLMConfig) Config {
	return Config{
		Timeout: cfg.Timeout,
		Anthropic: AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		},
		OpenAI: OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		Ollama: OllamaConfig{
			Model:   cfg.Ollama.Model,
			BaseURL: cfg.Ollama.BaseURL,
		},
		Azure: AzureConfig{
			APIKey:     cfg.Azure.APIKey,
			Endpoint:   cfg.Azure.Endpoint,
			Deployment: cfg.Azure.Deployment,
			APIVersion: cfg.Azure.APIVersion,
		},
	}
}

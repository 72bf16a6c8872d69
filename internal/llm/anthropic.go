package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAnthropic(cfg AnthropicConfig, client *http.Client) *Anthropic {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Anthropic{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

func (a *Anthropic) Name() string  { return ProviderAnthropic }
func (a *Anthropic) Model() string { return a.model }

func (a *Anthropic) IsConfigured() bool {
	return a.apiKey != ""
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !a.IsConfigured() {
		return "", &ConfigError{Provider: ProviderAnthropic, Reason: "ANTHROPIC_API_KEY is not set"}
	}
	return generate(ProviderAnthropic, func() (string, error) {
		payload := anthropicRequest{
			Model:       a.model,
			MaxTokens:   maxOutputTokens,
			Temperature: temperature,
			System:      systemPrompt,
			Messages:    []chatMessage{{Role: "user", Content: userMessage}},
		}
		headers := map[string]string{
			"x-api-key":         a.apiKey,
			"anthropic-version": anthropicVersion,
		}

		var parsed anthropicResponse
		if err := postJSON(ctx, a.client, a.baseURL+"/v1/messages", headers, payload, &parsed); err != nil {
			return "", err
		}
		for _, block := range parsed.Content {
			if block.Type == "" || block.Type == "text" {
				return strings.TrimSpace(block.Text), nil
			}
		}
		return "", fmt.Errorf("response contained no text content")
	})
}

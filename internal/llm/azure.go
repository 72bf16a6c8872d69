package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const defaultAzureAPIVersion = "2024-02-15-preview"

type AzureConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// Azure targets an Azure OpenAI deployment. The deployment name doubles as the
// model identifier.
type Azure struct {
	apiKey     string
	endpoint   string
	deployment string
	apiVersion string
	client     *http.Client
}

func NewAzure(cfg AzureConfig, client *http.Client) *Azure {
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Azure{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		deployment: strings.TrimSpace(cfg.Deployment),
		apiVersion: apiVersion,
		client:     client,
	}
}

func (a *Azure) Name() string  { return ProviderAzure }
func (a *Azure) Model() string { return a.deployment }

func (a *Azure) IsConfigured() bool {
	if a.apiKey == "" || a.endpoint == "" || a.deployment == "" {
		return false
	}
	parsed, err := url.Parse(a.endpoint)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

func (a *Azure) completionsURL() string {
	return a.endpoint + "/openai/deployments/" + url.PathEscape(a.deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(a.apiVersion)
}

func (a *Azure) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if !a.IsConfigured() {
		return "", &ConfigError{
			Provider: ProviderAzure,
			Reason:   "AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_DEPLOYMENT are required",
		}
	}
	return generate(ProviderAzure, func() (string, error) {
		headers := map[string]string{"api-key": a.apiKey}
		return chatCompletion(ctx, a.client, a.completionsURL(), headers, a.deployment, systemPrompt, userMessage)
	})
}

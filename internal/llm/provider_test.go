package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/duckmesh/eurostat-mcp/internal/config"
)

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("unexpected network call")
}

type capturedRequest struct {
	path    string
	query   string
	headers http.Header
	body    map[string]any
}

func newCaptureServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

const chatResponse = `{"choices":[{"message":{"role":"assistant","content":"  SELECT 1  \n"}}]}`

func TestNewResolvesKeysCaseInsensitively(t *testing.T) {
	tests := map[string]string{
		"anthropic":   ProviderAnthropic,
		" OpenAI ":    ProviderOpenAI,
		"OLLAMA":      ProviderOllama,
		"Azure":       ProviderAzure,
		"\tanthropic": ProviderAnthropic,
	}
	for key, want := range tests {
		provider, err := New(key, Config{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", key, err)
		}
		if provider.Name() != want {
			t.Fatalf("New(%q).Name() = %q, want %q", key, provider.Name(), want)
		}
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New("gemini", Config{})
	if err == nil {
		t.Fatal("New() expected error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("New() error type = %T", err)
	}
	if !strings.Contains(err.Error(), "anthropic, openai, ollama, azure") {
		t.Fatalf("New() error = %q, want available providers", err.Error())
	}
}

func TestDefaultModels(t *testing.T) {
	cfg := Config{Azure: AzureConfig{Deployment: "sql-deploy"}}
	tests := map[string]string{
		ProviderAnthropic: "claude-3-5-sonnet-20241022",
		ProviderOpenAI:    "gpt-4o",
		ProviderOllama:    "llama3.1",
		ProviderAzure:     "sql-deploy",
	}
	for key, want := range tests {
		provider, err := New(key, cfg)
		if err != nil {
			t.Fatalf("New(%q) error = %v", key, err)
		}
		if provider.Model() != want {
			t.Fatalf("%s Model() = %q, want %q", key, provider.Model(), want)
		}
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		want     bool
	}{
		{"anthropic without key", NewAnthropic(AnthropicConfig{}, nil), false},
		{"anthropic blank key", NewAnthropic(AnthropicConfig{APIKey: "  "}, nil), false},
		{"anthropic with key", NewAnthropic(AnthropicConfig{APIKey: "k"}, nil), true},
		{"openai without key", NewOpenAI(OpenAIConfig{}, nil), false},
		{"openai with key", NewOpenAI(OpenAIConfig{APIKey: "k"}, nil), true},
		{"ollama defaults", NewOllama(OllamaConfig{}, nil), true},
		{"ollama custom host", NewOllama(OllamaConfig{BaseURL: "http://gpu-box:11434", Model: "qwen2.5"}, nil), true},
		{"ollama relative url", NewOllama(OllamaConfig{BaseURL: "localhost"}, nil), false},
		{"azure without settings", NewAzure(AzureConfig{}, nil), false},
		{"azure missing deployment", NewAzure(AzureConfig{APIKey: "k", Endpoint: "https://x.openai.azure.com"}, nil), false},
		{"azure missing endpoint", NewAzure(AzureConfig{APIKey: "k", Deployment: "d"}, nil), false},
		{"azure complete", NewAzure(AzureConfig{APIKey: "k", Endpoint: "https://x.openai.azure.com", Deployment: "d"}, nil), true},
	}
	for _, tt := range tests {
		if got := tt.provider.IsConfigured(); got != tt.want {
			t.Fatalf("%s: IsConfigured() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGenerateUnconfiguredMakesNoNetworkCall(t *testing.T) {
	transport := &countingTransport{}
	client := &http.Client{Transport: transport}
	providers := []Provider{
		NewAnthropic(AnthropicConfig{}, client),
		NewOpenAI(OpenAIConfig{}, client),
		NewOllama(OllamaConfig{BaseURL: "not a url"}, client),
		NewAzure(AzureConfig{APIKey: "k"}, client),
	}
	for _, provider := range providers {
		_, err := provider.Generate(context.Background(), "system", "user")
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s Generate() error = %v, want ConfigError", provider.Name(), err)
		}
		if cfgErr.Provider != provider.Name() {
			t.Fatalf("ConfigError.Provider = %q, want %q", cfgErr.Provider, provider.Name())
		}
	}
	if transport.calls != 0 {
		t.Fatalf("network calls = %d, want 0", transport.calls)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK,
		`{"content":[{"type":"text","text":"\n SELECT * FROM EUROSTAT_Endpoints() \n"}]}`)
	provider := NewAnthropic(AnthropicConfig{APIKey: "secret", BaseURL: srv.URL + "/"}, srv.Client())

	got, err := provider.Generate(context.Background(), "be precise", "list providers")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT * FROM EUROSTAT_Endpoints()" {
		t.Fatalf("Generate() = %q", got)
	}
	if captured.path != "/v1/messages" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.headers.Get("x-api-key") != "secret" || captured.headers.Get("anthropic-version") != "2023-06-01" {
		t.Fatalf("headers = %#v", captured.headers)
	}
	if captured.body["system"] != "be precise" {
		t.Fatalf("system = %#v", captured.body["system"])
	}
	if captured.body["temperature"] != float64(0) || captured.body["max_tokens"] != float64(2000) {
		t.Fatalf("sampling = %#v / %#v", captured.body["temperature"], captured.body["max_tokens"])
	}
	if captured.body["model"] != "claude-3-5-sonnet-20241022" {
		t.Fatalf("model = %#v", captured.body["model"])
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, chatResponse)
	provider := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, srv.Client())

	got, err := provider.Generate(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("Generate() = %q", got)
	}
	if captured.path != "/v1/chat/completions" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.headers.Get("Authorization") != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", captured.headers.Get("Authorization"))
	}
	messages, ok := captured.body["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %#v", captured.body["messages"])
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "sys" {
		t.Fatalf("messages[0] = %#v", first)
	}
	if captured.body["stream"] != false {
		t.Fatalf("stream = %#v", captured.body["stream"])
	}
}

func TestOllamaGenerateUsesPlaceholderKey(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, chatResponse)
	provider := NewOllama(OllamaConfig{BaseURL: srv.URL, Model: "qwen2.5"}, srv.Client())

	if _, err := provider.Generate(context.Background(), "sys", "usr"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if captured.path != "/v1/chat/completions" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.headers.Get("Authorization") != "Bearer ollama" {
		t.Fatalf("Authorization = %q", captured.headers.Get("Authorization"))
	}
	if captured.body["model"] != "qwen2.5" {
		t.Fatalf("model = %#v", captured.body["model"])
	}
}

func TestAzureGenerate(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, chatResponse)
	provider := NewAzure(AzureConfig{
		APIKey:     "azure-key",
		Endpoint:   srv.URL + "/",
		Deployment: "sql-deploy",
	}, srv.Client())

	if _, err := provider.Generate(context.Background(), "sys", "usr"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if captured.path != "/openai/deployments/sql-deploy/chat/completions" {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.query != "api-version=2024-02-15-preview" {
		t.Fatalf("query = %q", captured.query)
	}
	if captured.headers.Get("api-key") != "azure-key" {
		t.Fatalf("api-key = %q", captured.headers.Get("api-key"))
	}
}

func TestGenerateWrapsBackendFailures(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`)
	provider := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client())

	_, err := provider.Generate(context.Background(), "sys", "usr")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Generate() error = %v, want BackendError", err)
	}
	if backendErr.Provider != ProviderOpenAI {
		t.Fatalf("BackendError.Provider = %q", backendErr.Provider)
	}
	if !strings.Contains(err.Error(), "OpenAI API error") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("Generate() error = %q", err.Error())
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, `{"choices":[]}`)
	provider := NewOllama(OllamaConfig{BaseURL: srv.URL}, srv.Client())

	_, err := provider.Generate(context.Background(), "sys", "usr")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Generate() error = %v, want BackendError", err)
	}
	if !strings.Contains(err.Error(), "Ollama API error") {
		t.Fatalf("Generate() error = %q", err.Error())
	}
}

func TestGenerateHonoursContextCancellation(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, chatResponse)
	provider := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := provider.Generate(ctx, "sys", "usr")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestKeysReturnsCopy(t *testing.T) {
	keys := Keys()
	keys[0] = "mutated"
	if Keys()[0] != ProviderAnthropic {
		t.Fatalf("Keys() leaked internal slice")
	}
}

func TestConfigFromMapsSettings(t *testing.T) {
	cfg := ConfigFrom(config.LLMConfig{
		Timeout:   time.Second,
		Anthropic: config.AnthropicConfig{APIKey: "a"},
		OpenAI:    config.OpenAIConfig{APIKey: "o", Model: "gpt-4o-mini"},
		Ollama:    config.OllamaConfig{Model: "qwen2.5"},
		Azure:     config.AzureConfig{APIKey: "z", Endpoint: "https://x.openai.azure.com", Deployment: "d"},
	})
	if cfg.Timeout != time.Second || cfg.Anthropic.APIKey != "a" || cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("ConfigFrom() = %#v", cfg)
	}
	provider, err := New(ProviderAzure, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !provider.IsConfigured() {
		t.Fatal("azure provider should be configured from mapped settings")
	}
}

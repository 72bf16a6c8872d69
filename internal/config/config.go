package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type TransportMode string

const (
	TransportStdio TransportMode = "stdio"
	TransportHTTP  TransportMode = "http"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	Transport     TransportConfig
	Engine        EngineConfig
	LLM           LLMConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name    string
	Version string
}

type TransportConfig struct {
	Mode         TransportMode
	HTTPAddress  string
	MetricsAddr  string
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	ReadyTimeout time.Duration
}

type EngineConfig struct {
	DBPath              string
	Extension           string
	ExtensionRepository string
}

type LLMConfig struct {
	Provider  string
	Timeout   time.Duration
	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Ollama    OllamaConfig
	Azure     AzureConfig
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaConfig struct {
	Model   string
	BaseURL string
}

type AzureConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

// LoadFromEnv reads the process environment, falling back to values from the
// given dotenv files. Missing files are ignored and the process env always wins.
func LoadFromEnv(serviceName string, envFiles ...string) (Config, error) {
	fileValues, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}
	return Load(serviceName, func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := fileValues[key]
		return value, ok
	})
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("EUROSTAT_MCP_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid EUROSTAT_MCP_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	var transport string
	appliers := []func() error{
		func() error { return applyString(lookup, "EUROSTAT_MCP_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "EUROSTAT_MCP_TRANSPORT", &transport) },
		func() error { return applyString(lookup, "EUROSTAT_MCP_HTTP_ADDR", &cfg.Transport.HTTPAddress) },
		func() error { return applyString(lookup, "EUROSTAT_MCP_METRICS_ADDR", &cfg.Transport.MetricsAddr) },
		func() error {
			return applyDuration(lookup, "EUROSTAT_MCP_HTTP_READ_TIMEOUT", &cfg.Transport.ReadTimeout)
		},
		func() error {
			return applyDuration(lookup, "EUROSTAT_MCP_HTTP_IDLE_TIMEOUT", &cfg.Transport.IdleTimeout)
		},
		func() error { return applyDuration(lookup, "EUROSTAT_MCP_READY_TIMEOUT", &cfg.Transport.ReadyTimeout) },
		func() error { return applyString(lookup, "EUROSTAT_MCP_DB_PATH", &cfg.Engine.DBPath) },
		func() error { return applyString(lookup, "EUROSTAT_MCP_EXTENSION", &cfg.Engine.Extension) },
		func() error {
			return applyString(lookup, "EUROSTAT_MCP_EXTENSION_REPOSITORY", &cfg.Engine.ExtensionRepository)
		},
		func() error { return applyDuration(lookup, "EUROSTAT_MCP_LLM_TIMEOUT", &cfg.LLM.Timeout) },
		func() error { return applyString(lookup, "LLM_PROVIDER", &cfg.LLM.Provider) },
		func() error { return applyString(lookup, "ANTHROPIC_API_KEY", &cfg.LLM.Anthropic.APIKey) },
		func() error { return applyString(lookup, "ANTHROPIC_MODEL", &cfg.LLM.Anthropic.Model) },
		func() error { return applyString(lookup, "ANTHROPIC_BASE_URL", &cfg.LLM.Anthropic.BaseURL) },
		func() error { return applyString(lookup, "OPENAI_API_KEY", &cfg.LLM.OpenAI.APIKey) },
		func() error { return applyString(lookup, "OPENAI_MODEL", &cfg.LLM.OpenAI.Model) },
		func() error { return applyString(lookup, "OPENAI_BASE_URL", &cfg.LLM.OpenAI.BaseURL) },
		func() error { return applyString(lookup, "OLLAMA_MODEL", &cfg.LLM.Ollama.Model) },
		func() error { return applyString(lookup, "OLLAMA_BASE_URL", &cfg.LLM.Ollama.BaseURL) },
		func() error { return applyString(lookup, "AZURE_OPENAI_API_KEY", &cfg.LLM.Azure.APIKey) },
		func() error { return applyString(lookup, "AZURE_OPENAI_ENDPOINT", &cfg.LLM.Azure.Endpoint) },
		func() error { return applyString(lookup, "AZURE_OPENAI_DEPLOYMENT", &cfg.LLM.Azure.Deployment) },
		func() error { return applyString(lookup, "AZURE_OPENAI_API_VERSION", &cfg.LLM.Azure.APIVersion) },
		func() error { return applyBool(lookup, "EUROSTAT_MCP_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "EUROSTAT_MCP_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	if transport != "" {
		cfg.Transport.Mode = TransportMode(strings.ToLower(transport))
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	switch cfg.Transport.Mode {
	case TransportStdio:
	case TransportHTTP:
		if cfg.Transport.HTTPAddress == "" {
			return Config{}, fmt.Errorf("http address is required for http transport")
		}
	default:
		return Config{}, fmt.Errorf("invalid EUROSTAT_MCP_TRANSPORT: %q", cfg.Transport.Mode)
	}
	if cfg.Engine.Extension == "" {
		return Config{}, fmt.Errorf("duckdb extension is required")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "eurostat-mcp", Version: "0.1.0"},
		Transport: TransportConfig{
			Mode:         TransportStdio,
			HTTPAddress:  ":8080",
			MetricsAddr:  "",
			ReadTimeout:  5 * time.Second,
			IdleTimeout:  60 * time.Second,
			ReadyTimeout: 2 * time.Second,
		},
		Engine: EngineConfig{
			DBPath:              ":memory:",
			Extension:           "eurostat",
			ExtensionRepository: "community",
		},
		LLM: LLMConfig{
			Provider: "anthropic",
			Timeout:  120 * time.Second,
			Anthropic: AnthropicConfig{
				Model:   "claude-3-5-sonnet-20241022",
				BaseURL: "https://api.anthropic.com",
			},
			OpenAI: OpenAIConfig{
				Model:   "gpt-4o",
				BaseURL: "https://api.openai.com/v1",
			},
			Ollama: OllamaConfig{
				Model:   "llama3.1",
				BaseURL: "http://localhost:11434",
			},
			Azure: AzureConfig{
				APIVersion: "2024-02-15-preview",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.Transport.HTTPAddress = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func readEnvFiles(paths []string) (map[string]string, error) {
	values := map[string]string{}
	for _, path := range paths {
		// earlier files take precedence, matching godotenv.Load semantics
		fileValues, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for key, value := range fileValues {
			if _, exists := values[key]; !exists {
				values[key] = value
			}
		}
	}
	return values, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

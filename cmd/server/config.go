package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/Pacifique5/AI-BOT/internal/gateway"
	"github.com/Pacifique5/AI-BOT/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	completer(logger *slog.Logger) (gateway.Completer, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Temperature *float32 `yaml:"temperature"`
}

type config struct {
	Port           string    `yaml:"port"`
	Persona        string    `yaml:"persona"`
	GatewayURL     string    `yaml:"gatewayURL"`
	RequestTimeout int       `yaml:"requestTimeout"`
	LogLevel       string    `yaml:"logLevel"`
	LLM            llmConfig `yaml:"llm"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	MaxTokens     int    `yaml:"maxTokens"`
}

const (
	defaultPort           = "8080"
	defaultModel          = "gpt-4o-mini"
	defaultTemperature    = float32(0.7)
	defaultRequestTimeout = 30
	defaultOllamaHost     = "http://127.0.0.1:11434"
)

// loadConfig reads the yaml configuration at path. A missing file is not an error: the defaults
// target an OpenAI upstream configured entirely through environment variables, and a missing
// credential is surfaced through the liveness probe rather than at startup.
func loadConfig(path string) (config, error) {
	cfg := config{
		Port:           defaultPort,
		Persona:        gateway.DefaultPersona,
		RequestTimeout: defaultRequestTimeout,
		LLM:            &openAIConfig{},
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = t
		}
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding config file: %w", err)
	}
	return cfg, nil
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string         `yaml:"port"`
		Persona        string         `yaml:"persona"`
		GatewayURL     string         `yaml:"gatewayURL"`
		RequestTimeout int            `yaml:"requestTimeout"`
		LogLevel       string         `yaml:"logLevel"`
		LLM            map[string]any `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	if rawConfig.Port != "" {
		c.Port = rawConfig.Port
	}
	if rawConfig.Persona != "" {
		c.Persona = rawConfig.Persona
	}
	if rawConfig.GatewayURL != "" {
		c.GatewayURL = rawConfig.GatewayURL
	}
	if rawConfig.RequestTimeout != 0 {
		c.RequestTimeout = rawConfig.RequestTimeout
	}
	if rawConfig.LogLevel != "" {
		c.LogLevel = rawConfig.LogLevel
	}

	if rawConfig.LLM == nil {
		return nil
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "openai":
		llm = &openAIConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

func (o openAIConfig) completer(logger *slog.Logger) (gateway.Completer, error) {
	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	baseURL := o.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_API_BASE")
	}

	model := o.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = defaultModel
	}

	return services.NewOpenAI(apiKey, baseURL, model, o.temperature(), logger), nil
}

func (o ollamaConfig) completer(*slog.Logger) (gateway.Completer, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	return services.NewOllama(host, o.Model, o.temperature()), nil
}

func (a anthropicConfig) completer(logger *slog.Logger) (gateway.Completer, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if a.MaxTokens == 0 {
		return nil, fmt.Errorf("maxTokens is required")
	}

	apiKey := a.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return services.NewAnthropic(apiKey, a.Model, a.MaxTokens, a.temperature(), logger), nil
}

// temperature resolves the sampling temperature from the config file, the OPENAI_TEMPERATURE
// environment variable, or the default, in that order.
func (b BaseLLMConfig) temperature() float32 {
	if b.Temperature != nil {
		return *b.Temperature
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(t)
		}
	}
	return defaultTemperature
}

func (c config) logLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

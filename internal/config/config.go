package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/drpaneas/resonance/internal/dataset"
	"github.com/drpaneas/resonance/internal/evaluate"
	"github.com/drpaneas/resonance/internal/llm"
	"github.com/drpaneas/resonance/internal/observability"
	"github.com/drpaneas/resonance/internal/persona"
)

const (
	DefaultNumPersonas  = 10
	DefaultPersonaLimit = 1000
	DefaultServerAddr   = ":8080"
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultAWSRegion    = "us-east-1"
)

// Config holds all runtime configuration for resonance.
type Config struct {
	Provider      llm.ProviderName `yaml:"provider"`
	Model         string           `yaml:"model"`
	APIKey        string           `yaml:"-"`
	OllamaHost    string           `yaml:"ollama_host"`
	AWSRegion     string           `yaml:"aws_region"`
	Role          string           `yaml:"role"`
	NumPersonas   int              `yaml:"num_personas"`
	PersonaLimit  int              `yaml:"persona_limit"`
	PersonaSource string           `yaml:"persona_source"`
	MessagesFile  string           `yaml:"messages_file"`
	OutputFile    string           `yaml:"output_file"`
	Concurrency   int              `yaml:"concurrency"`
	Verbose       bool             `yaml:"verbose"`
	LogFormat     string           `yaml:"log_format"`
	ServerAddr    string           `yaml:"server_addr"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Provider:      llm.ProviderOpenAI,
		NumPersonas:   DefaultNumPersonas,
		PersonaLimit:  DefaultPersonaLimit,
		PersonaSource: dataset.DefaultLocation,
		Concurrency:   evaluate.DefaultConcurrency,
		LogFormat:     string(observability.LogFormatText),
		ServerAddr:    DefaultServerAddr,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from the .env file at path into the
// process environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// LoadFromEnv populates environment-dependent fields (keys, hosts, region).
func (c *Config) LoadFromEnv() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if c.OllamaHost == "" {
		c.OllamaHost = DefaultOllamaHost
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.AWSRegion = region
	}
	if c.AWSRegion == "" {
		c.AWSRegion = DefaultAWSRegion
	}
	if key := envKeyForProvider(c.Provider); key != "" {
		c.APIKey = os.Getenv(key)
	}
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if !c.Provider.Valid() {
		return fmt.Errorf("unsupported LLM provider %q: must be one of %v", c.Provider, llm.ProviderNames())
	}
	if c.APIKey == "" && c.Provider.NeedsAPIKey() {
		return fmt.Errorf("%s requires an API key (set %s)", c.Provider, envKeyForProvider(c.Provider))
	}
	if c.PersonaLimit < 1 {
		return fmt.Errorf("--persona-limit must be at least 1")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}
	switch observability.LogFormat(c.LogFormat) {
	case observability.LogFormatText, observability.LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// ValidateEvaluate checks the settings an evaluation run needs on top of
// Validate and returns the parsed role.
func (c *Config) ValidateEvaluate() (persona.Role, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if c.MessagesFile == "" {
		return 0, fmt.Errorf("--messages-file is required")
	}
	if c.OutputFile == "" {
		return 0, fmt.Errorf("--output-file is required")
	}
	if c.NumPersonas < 1 {
		return 0, fmt.Errorf("--num-personas must be at least 1")
	}
	role, err := persona.ParseRole(c.Role)
	if err != nil {
		return 0, err
	}
	return role, nil
}

// ProviderConfig returns the settings needed to build the LLM provider.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Name:       c.Provider,
		APIKey:     c.APIKey,
		Model:      c.Model,
		OllamaHost: c.OllamaHost,
		AWSRegion:  c.AWSRegion,
	}
}

// DefaultModel returns the default model name for the given provider.
func DefaultModel(provider llm.ProviderName) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "gpt-4o"
	case llm.ProviderAnthropic:
		return "claude-sonnet-4-5"
	case llm.ProviderOllama:
		return "llama3"
	case llm.ProviderGemini:
		return "gemini-2.5-flash"
	case llm.ProviderBedrock:
		return "anthropic.claude-3-5-sonnet-20240620-v1:0"
	default:
		return ""
	}
}

func envKeyForProvider(provider llm.ProviderName) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

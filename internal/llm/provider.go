// Package llm wraps the chat-completion backends a judge can run on.
package llm

import (
	"context"
	"fmt"
)

// ProviderName identifies a supported LLM provider.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOllama    ProviderName = "ollama"
	ProviderGemini    ProviderName = "gemini"
	ProviderBedrock   ProviderName = "bedrock"
)

// ProviderNames lists every supported provider.
func ProviderNames() []ProviderName {
	return []ProviderName{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGemini, ProviderBedrock}
}

// Valid reports whether n names a supported provider.
func (n ProviderName) Valid() bool {
	switch n {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGemini, ProviderBedrock:
		return true
	default:
		return false
	}
}

// NeedsAPIKey reports whether the provider authenticates with an API key.
// Ollama is local and Bedrock uses the AWS credential chain.
func (n ProviderName) NeedsAPIKey() bool {
	switch n {
	case ProviderOllama, ProviderBedrock:
		return false
	default:
		return true
	}
}

// CompleteOptions controls per-request LLM parameters.
// A nil value uses provider-specific defaults.
type CompleteOptions struct {
	Temperature *float32
	MaxTokens   int
	// JSON asks the backend to constrain output to a single JSON object
	// where it supports doing so.
	JSON bool
}

func (o *CompleteOptions) temperature(def float32) float32 {
	if o != nil && o.Temperature != nil {
		return *o.Temperature
	}
	return def
}

func (o *CompleteOptions) maxTokens(def int) int {
	if o != nil && o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return def
}

func (o *CompleteOptions) json() bool {
	return o != nil && o.JSON
}

// ProviderConfig holds the configuration needed to construct a Provider.
type ProviderConfig struct {
	Name       ProviderName
	APIKey     string
	Model      string
	OllamaHost string
	AWSRegion  string
}

// Provider abstracts an LLM completion backend.
type Provider interface {
	Complete(ctx context.Context, system, prompt string, opts *CompleteOptions) (string, error)
}

// NewProvider creates a Provider for the given configuration.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case ProviderOpenAI:
		return newOpenAI(cfg.APIKey, cfg.Model), nil
	case ProviderAnthropic:
		return newAnthropic(cfg.APIKey, cfg.Model), nil
	case ProviderOllama:
		return newOllama(cfg.OllamaHost, cfg.Model), nil
	case ProviderGemini:
		return newGemini(ctx, cfg.APIKey, cfg.Model)
	case ProviderBedrock:
		return newBedrock(ctx, cfg.AWSRegion, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Name)
	}
}

// Package judge defines the capability that scores a composed prompt and an
// adapter that runs it on an LLM provider.
package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/drpaneas/resonance/internal/llm"
)

// Request is one evaluation call.
type Request struct {
	System string
	Prompt string
}

// Judge returns the raw structured output for a prompt. Callers validate
// the output; a Judge only reports transport or backend failures.
type Judge interface {
	Evaluate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Judge.
type Func func(ctx context.Context, req Request) (string, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Options tune the LLM judge.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// DefaultOptions matches the sampling used when the scores were first
// calibrated.
var DefaultOptions = Options{Temperature: 0.7, MaxTokens: 1024}

// LLM is a Judge backed by an llm.Provider with JSON output requested.
type LLM struct {
	provider llm.Provider
	opts     Options
}

// NewLLM returns a judge that runs on provider.
func NewLLM(provider llm.Provider, opts Options) *LLM {
	return &LLM{provider: provider, opts: opts}
}

// Evaluate sends req to the provider.
func (j *LLM) Evaluate(ctx context.Context, req Request) (string, error) {
	temp := j.opts.Temperature
	out, err := j.provider.Complete(ctx, req.System, req.Prompt, &llm.CompleteOptions{
		Temperature: &temp,
		MaxTokens:   j.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		return "", fmt.Errorf("judge call: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("judge call: empty response")
	}
	return out, nil
}

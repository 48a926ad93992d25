package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider_InvalidName(t *testing.T) {
	_, err := NewProvider(context.Background(), ProviderConfig{Name: "invalid", APIKey: "key", Model: "model"})
	if err == nil {
		t.Error("expected error for invalid provider name")
	}
}

func TestNewProvider_ValidNames(t *testing.T) {
	tests := []struct {
		name ProviderName
	}{
		{ProviderOpenAI},
		{ProviderAnthropic},
		{ProviderOllama},
		{ProviderGemini},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p, err := NewProvider(context.Background(), ProviderConfig{
				Name:       tt.name,
				APIKey:     "fake-key",
				Model:      "model",
				OllamaHost: "http://localhost:11434",
			})
			if err != nil {
				t.Errorf("NewProvider(%q) unexpected error: %v", tt.name, err)
			}
			if p == nil {
				t.Errorf("NewProvider(%q) returned nil", tt.name)
			}
		})
	}
}

func TestNeedsAPIKey(t *testing.T) {
	want := map[ProviderName]bool{
		ProviderOpenAI:    true,
		ProviderAnthropic: true,
		ProviderGemini:    true,
		ProviderOllama:    false,
		ProviderBedrock:   false,
	}
	for _, n := range ProviderNames() {
		if got := n.NeedsAPIKey(); got != want[n] {
			t.Errorf("%s.NeedsAPIKey() = %v, want %v", n, got, want[n])
		}
	}
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: `{"resonance_score": 7}`, Done: true})
	}))
	defer srv.Close()

	p := newOllama(srv.URL+"/", "llama3")
	temp := float32(0.7)
	out, err := p.Complete(context.Background(), "sys", "prompt", &CompleteOptions{Temperature: &temp, JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"resonance_score": 7}` {
		t.Errorf("Complete = %q", out)
	}
	if got.Format != "json" {
		t.Errorf("format = %q, want json", got.Format)
	}
	if got.System != "sys" || got.Prompt != "prompt" || got.Model != "llama3" || got.Stream {
		t.Errorf("unexpected request %+v", got)
	}
	if got.Options == nil || got.Options.Temperature != 0.7 {
		t.Errorf("options = %+v, want temperature 0.7", got.Options)
	}
}

func TestOllamaComplete_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newOllama(srv.URL, "missing").Complete(context.Background(), "", "p", nil)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Complete error = %v, want status 404", err)
	}
}

func TestCompleteOptionsDefaults(t *testing.T) {
	var nilOpts *CompleteOptions
	if nilOpts.temperature(0.3) != 0.3 || nilOpts.maxTokens(10) != 10 || nilOpts.json() {
		t.Error("nil options should use defaults")
	}
	temp := float32(0)
	o := &CompleteOptions{Temperature: &temp, MaxTokens: 5, JSON: true}
	if o.temperature(0.3) != 0 || o.maxTokens(10) != 5 || !o.json() {
		t.Errorf("options not honored: %+v", o)
	}
}

func TestProviderName_Valid(t *testing.T) {
	for _, n := range ProviderNames() {
		if !n.Valid() {
			t.Errorf("%s.Valid() = false, want true", n)
		}
	}
	for _, n := range []ProviderName{"", "mistral", "OpenAI"} {
		if n.Valid() {
			t.Errorf("%q.Valid() = true, want false", n)
		}
	}
}

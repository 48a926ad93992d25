package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/drpaneas/resonance/internal/llm"
	"github.com/drpaneas/resonance/internal/persona"
)

func validConfig() Config {
	cfg := Default()
	cfg.APIKey = "sk-fake"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid openai config", mutate: func(*Config) {}},
		{
			name: "valid anthropic config",
			mutate: func(c *Config) {
				c.Provider = llm.ProviderAnthropic
			},
		},
		{
			name: "valid ollama config without api key",
			mutate: func(c *Config) {
				c.Provider = llm.ProviderOllama
				c.APIKey = ""
			},
		},
		{
			name: "valid bedrock config without api key",
			mutate: func(c *Config) {
				c.Provider = llm.ProviderBedrock
				c.APIKey = ""
			},
		},
		{
			name: "invalid provider",
			mutate: func(c *Config) {
				c.Provider = "mistral"
			},
			wantErr: true,
		},
		{
			name: "openai missing api key",
			mutate: func(c *Config) {
				c.APIKey = ""
			},
			wantErr: true,
		},
		{
			name: "gemini missing api key",
			mutate: func(c *Config) {
				c.Provider = llm.ProviderGemini
				c.APIKey = ""
			},
			wantErr: true,
		},
		{
			name: "zero persona limit",
			mutate: func(c *Config) {
				c.PersonaLimit = 0
			},
			wantErr: true,
		},
		{
			name: "zero concurrency",
			mutate: func(c *Config) {
				c.Concurrency = 0
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			mutate: func(c *Config) {
				c.LogFormat = "xml"
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEvaluate(t *testing.T) {
	base := func() Config {
		cfg := validConfig()
		cfg.Role = "it_admin"
		cfg.MessagesFile = "messages.json"
		cfg.OutputFile = "results.json"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		role, err := cfg.ValidateEvaluate()
		if err != nil {
			t.Fatalf("ValidateEvaluate: %v", err)
		}
		if role != persona.RoleITAdmin {
			t.Errorf("role = %v, want %v", role, persona.RoleITAdmin)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		cfg := base()
		cfg.Role = "astronaut"
		if _, err := cfg.ValidateEvaluate(); !errors.Is(err, persona.ErrUnknownRole) {
			t.Errorf("error = %v, want ErrUnknownRole", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing messages file", func(c *Config) { c.MessagesFile = "" }},
		{"missing output file", func(c *Config) { c.OutputFile = "" }},
		{"zero personas", func(c *Config) { c.NumPersonas = 0 }},
		{"missing role", func(c *Config) { c.Role = "" }},
		{"shared checks still apply", func(c *Config) { c.Concurrency = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if _, err := cfg.ValidateEvaluate(); err == nil {
				t.Error("ValidateEvaluate() error = nil, want error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resonance.yaml")
	data := "provider: anthropic\nrole: retail\nnum_personas: 3\nconcurrency: 8\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := Default()
	want.Provider = llm.ProviderAnthropic
	want.Role = "retail"
	want.NumPersonas = 3
	want.Concurrency = 8
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	t.Run("missing file", func(t *testing.T) {
		cfg := Default()
		if err := cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadFile() error = nil, want error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(bad, []byte("num_personas: [1, 2"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := Default()
		if err := cfg.LoadFile(bad); err == nil {
			t.Error("LoadFile() error = nil, want error")
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("selects key for provider", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
		t.Setenv("GEMINI_API_KEY", "gm-key")

		for provider, want := range map[llm.ProviderName]string{
			llm.ProviderOpenAI:    "sk-openai",
			llm.ProviderAnthropic: "sk-ant",
			llm.ProviderGemini:    "gm-key",
			llm.ProviderOllama:    "",
		} {
			cfg := Default()
			cfg.Provider = provider
			cfg.LoadFromEnv()
			if cfg.APIKey != want {
				t.Errorf("%s: APIKey = %q, want %q", provider, cfg.APIKey, want)
			}
		}
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
		t.Setenv("AWS_REGION", "eu-west-1")
		cfg := Default()
		cfg.OllamaHost = "http://from-yaml:11434"
		cfg.AWSRegion = "us-west-2"
		cfg.LoadFromEnv()
		if cfg.OllamaHost != "http://gpu-box:11434" {
			t.Errorf("OllamaHost = %q", cfg.OllamaHost)
		}
		if cfg.AWSRegion != "eu-west-1" {
			t.Errorf("AWSRegion = %q", cfg.AWSRegion)
		}
	})

	t.Run("defaults when unset", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "")
		t.Setenv("AWS_REGION", "")
		cfg := Default()
		cfg.LoadFromEnv()
		if cfg.OllamaHost != DefaultOllamaHost {
			t.Errorf("OllamaHost = %q, want %q", cfg.OllamaHost, DefaultOllamaHost)
		}
		if cfg.AWSRegion != DefaultAWSRegion {
			t.Errorf("AWSRegion = %q, want %q", cfg.AWSRegion, DefaultAWSRegion)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadDotEnv: %v", err)
		}
	})

	t.Run("does not override existing variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("RESONANCE_TEST_A=from-file\nRESONANCE_TEST_B=from-file\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("RESONANCE_TEST_A", "from-env")
		t.Setenv("RESONANCE_TEST_B", "")
		os.Unsetenv("RESONANCE_TEST_B")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv: %v", err)
		}
		if got := os.Getenv("RESONANCE_TEST_A"); got != "from-env" {
			t.Errorf("RESONANCE_TEST_A = %q, want from-env", got)
		}
		if got := os.Getenv("RESONANCE_TEST_B"); got != "from-file" {
			t.Errorf("RESONANCE_TEST_B = %q, want from-file", got)
		}
	})
}

func TestDefaultModel(t *testing.T) {
	for _, p := range llm.ProviderNames() {
		if DefaultModel(p) == "" {
			t.Errorf("DefaultModel(%s) is empty", p)
		}
	}
	if got := DefaultModel("unknown"); got != "" {
		t.Errorf("DefaultModel(unknown) = %q, want empty", got)
	}
}

package config

import (
	"errors"
	"testing"
)

// validConfig returns a config that passes validation for the ollama
// provider, which needs no API key in the environment.
func validConfig() *Config {
	return &Config{
		Provider:         ProviderOllama,
		ModelDisplayName: "Ollama",
		OllamaHost:       "http://localhost:11434",
		OllamaModel:      "llama3",
		Temperature:      0.1,
		MaxTokens:        3000,
		ContextTurns:     3,
		EmbedderModel:    DefaultEmbedderModel,
		ChunkSize:        1000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "skynet" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty model display name",
			mutate:  func(c *Config) { c.ModelDisplayName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.MaxTokens = 0 },
			wantErr: ErrInvalidMaxTokens,
		},
		{
			name:    "zero context turns",
			mutate:  func(c *Config) { c.ContextTurns = 0 },
			wantErr: ErrInvalidContextTurns,
		},
		{
			name:    "context turns above bound",
			mutate:  func(c *Config) { c.ContextTurns = MaxContextTurns + 1 },
			wantErr: ErrInvalidContextTurns,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "chunk size too small",
			mutate:  func(c *Config) { c.ChunkSize = 10 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "ollama without host",
			mutate:  func(c *Config) { c.OllamaHost = "" },
			wantErr: ErrInvalidOllamaHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if !errors.Is(cfg.Validate(), ErrConfigNil) {
		t.Fatal("nil config must fail validation with ErrConfigNil")
	}
}

func TestValidate_GeminiRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := validConfig()
	cfg.Provider = ProviderGemini

	if !errors.Is(cfg.Validate(), ErrMissingAPIKey) {
		t.Fatal("gemini provider without GEMINI_API_KEY must fail with ErrMissingAPIKey")
	}

	t.Setenv("GEMINI_API_KEY", "test-key")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() with API key = %v, want nil", err)
	}
}

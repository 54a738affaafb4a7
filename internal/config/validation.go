package config

import (
	"fmt"
	"os"
	"slices"
)

// HasGeminiKey reports whether a Gemini API key is present in the
// environment. The key itself is consumed by the provider plugin.
func (c *Config) HasGeminiKey() bool { return os.Getenv("GEMINI_API_KEY") != "" }

// HasOpenAIKey reports whether an OpenAI API key is present in the
// environment.
func (c *Config) HasOpenAIKey() bool { return os.Getenv("OPENAI_API_KEY") != "" }

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if !slices.Contains([]string{ProviderGemini, ProviderOllama, ProviderOpenAI}, c.Provider) {
		return fmt.Errorf("%w: %q (supported: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	// API key presence per provider. Ollama is local and needs none.
	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
	}

	if c.ModelDisplayName == "" {
		return fmt.Errorf("%w: model_display_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.ContextTurns < 1 || c.ContextTurns > MaxContextTurns {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidContextTurns, MaxContextTurns, c.ContextTurns)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.ChunkSize < 100 || c.ChunkSize > 100000 {
		return fmt.Errorf("%w: must be between 100 and 100,000, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}

	return nil
}

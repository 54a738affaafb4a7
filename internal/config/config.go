// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.quill/config.yaml, or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model selection, temperature, max tokens, embedder
//   - Chat: context turns (memory window), system prompt, debug
//   - Index: local vector index directory, chunk size
//
// Error handling uses sentinel errors checked with errors.Is(), wrapped
// with fmt.Errorf("%w: details", ErrXxx) for context.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidContextTurns indicates the context turns value is out of range.
	ErrInvalidContextTurns = errors.New("invalid context turns")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunkSize indicates the index chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultContextTurns is the default number of conversation turns the
	// memory window keeps per direction; the window holds 2x this many pairs.
	DefaultContextTurns = 3

	// DefaultChunkSize is the default target chunk size (in runes) for
	// document splitting before embedding.
	DefaultChunkSize = 1000

	// MaxContextTurns bounds the memory window to keep prompts affordable.
	MaxContextTurns = 50
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider         string  `mapstructure:"provider"`           // "gemini" (default), "ollama", "openai"
	ModelDisplayName string  `mapstructure:"model_display_name"` // Catalog display name (e.g. "Gemini Flash")
	Temperature      float64 `mapstructure:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	SystemPrompt     string  `mapstructure:"system_prompt"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost  string `mapstructure:"ollama_host"`
	OllamaModel string `mapstructure:"ollama_model"`

	// Conversation configuration
	ContextTurns int  `mapstructure:"context_turns"`
	Debug        bool `mapstructure:"debug"`

	// Index configuration
	EmbedderModel string `mapstructure:"embedder_model"`
	IndexDir      string `mapstructure:"index_dir"`
	ChunkSize     int    `mapstructure:"chunk_size"`
	RetrievalTopK int    `mapstructure:"retrieval_top_k"`

	// Notes configuration
	NotesDir string `mapstructure:"notes_dir"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".quill")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_display_name", "Gemini Flash")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_tokens", 3000)
	v.SetDefault("context_turns", DefaultContextTurns)
	v.SetDefault("debug", false)

	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("ollama_model", "llama3")

	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("index_dir", filepath.Join(configDir, "index"))
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("retrieval_top_k", 4)

	v.SetDefault("notes_dir", ".")
}

// bindEnvVariables binds environment variable overrides.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the
// Genkit provider plugins, not via viper; Validate only checks presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "QUILL_PROVIDER")
	mustBind("model_display_name", "QUILL_MODEL")
	mustBind("ollama_host", "QUILL_OLLAMA_HOST")
	mustBind("ollama_model", "QUILL_OLLAMA_MODEL")
	mustBind("index_dir", "QUILL_INDEX_DIR")
	mustBind("notes_dir", "QUILL_NOTES_DIR")
	mustBind("debug", "QUILL_DEBUG")
}

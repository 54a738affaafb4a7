// Package backend resolves logical model selections into concrete,
// callable model backends.
//
// A Registry owns the catalog of known models, the active (model,
// display name) descriptor pair, and the Genkit instance the backends
// generate through. Backends are cheap immutable values; the registry
// is the only mutable state and is safe for concurrent use.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/log"
)

var (
	// ErrBackendNotConfigured indicates the selected model has no
	// configured credential or endpoint.
	ErrBackendNotConfigured = errors.New("backend not configured")

	// ErrUnknownModel indicates the display name is not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

// StreamCallback is invoked for each chunk of a streamed response.
// Returning an error aborts the stream.
type StreamCallback = ai.ModelStreamCallback

// Descriptor pairs a provider-qualified model name with its display
// name. The two are updated together and must never disagree: strategy
// rebuilds read the pair as a unit.
type Descriptor struct {
	Model       string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	DisplayName string
}

// Backend is a concrete callable model bound to one descriptor and one
// set of generation parameters. Immutable; derive variants through
// WithTemperature.
type Backend struct {
	g           *genkit.Genkit
	desc        Descriptor
	temperature float64
	maxTokens   int
}

// Descriptor returns the (model, display name) pair this backend is
// bound to.
func (b *Backend) Descriptor() Descriptor { return b.desc }

// Temperature returns the generation temperature.
func (b *Backend) Temperature() float64 { return b.temperature }

// WithTemperature returns a copy of the backend with the given
// temperature. Used by one-shot commands that pin elevated determinism.
func (b *Backend) WithTemperature(t float64) *Backend {
	cp := *b
	cp.temperature = t
	return &cp
}

// Stream sends the ordered message sequence to the model and streams
// the response. system may be empty, in which case no system message is
// sent at all. docs, when present, are attached as retrieval context.
// cb may be nil for a non-streaming call. The final response is always
// returned after generation completes.
func (b *Backend) Stream(ctx context.Context, system string, msgs []*ai.Message, docs []*ai.Document, cb StreamCallback) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(b.desc.Model),
		ai.WithMessages(msgs...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     b.temperature,
			MaxOutputTokens: b.maxTokens,
		}),
	}
	if system != "" {
		opts = append(opts, ai.WithSystem(system))
	}
	if len(docs) > 0 {
		opts = append(opts, ai.WithDocs(docs...))
	}
	if cb != nil {
		opts = append(opts, ai.WithStreaming(cb))
	}
	return genkit.Generate(ctx, b.g, opts...)
}

// Registry resolves display names to backends and owns the active
// descriptor.
type Registry struct {
	mu      sync.RWMutex
	g       *genkit.Genkit
	cfg     *config.Config
	logger  log.Logger
	catalog map[string]string // display name -> provider-qualified model
	active  Descriptor
}

// NewRegistry creates a registry from the loaded configuration.
// The active descriptor starts at cfg.ModelDisplayName; Resolve reports
// whether it is actually usable.
func NewRegistry(g *genkit.Genkit, cfg *config.Config, logger log.Logger) (*Registry, error) {
	r := &Registry{
		g:       g,
		cfg:     cfg,
		logger:  logger,
		catalog: defaultCatalog(cfg),
	}

	model, ok := r.catalog[cfg.ModelDisplayName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, cfg.ModelDisplayName)
	}
	r.active = Descriptor{Model: model, DisplayName: cfg.ModelDisplayName}
	return r, nil
}

// defaultCatalog builds the display-name catalog. The Ollama entry is
// parameterized by the locally configured model.
func defaultCatalog(cfg *config.Config) map[string]string {
	return map[string]string{
		"Gemini Flash": "googleai/gemini-2.5-flash",
		"Gemini Pro":   "googleai/gemini-2.5-pro",
		"GPT-4o":       "openai/gpt-4o",
		"GPT-4o Mini":  "openai/gpt-4o-mini",
		"Ollama":       "ollama/" + cfg.OllamaModel,
	}
}

// Register adds or replaces a catalog entry. Tests use this to route a
// display name to a mock model.
func (r *Registry) Register(displayName, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog[displayName] = model
}

// DisplayNames returns the catalog's display names, sorted.
func (r *Registry) DisplayNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.catalog))
	for name := range r.catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the current (model, display name) descriptor.
func (r *Registry) Active() Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Resolve returns a backend for the given display name, or
// ErrBackendNotConfigured when its provider has no usable credential or
// endpoint. It does not change the active descriptor.
func (r *Registry) Resolve(displayName string) (*Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(displayName)
}

// ResolveActive resolves the currently active descriptor.
func (r *Registry) ResolveActive() (*Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(r.active.DisplayName)
}

func (r *Registry) resolveLocked(displayName string) (*Backend, error) {
	model, ok := r.catalog[displayName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, displayName)
	}
	if err := r.checkConfigured(model); err != nil {
		return nil, err
	}
	return &Backend{
		g:           r.g,
		desc:        Descriptor{Model: model, DisplayName: displayName},
		temperature: r.cfg.Temperature,
		maxTokens:   r.cfg.MaxTokens,
	}, nil
}

// Switch atomically updates the active descriptor to the given display
// name after verifying the target resolves. On failure the prior
// descriptor is retained.
func (r *Registry) Switch(displayName string) (*Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.resolveLocked(displayName)
	if err != nil {
		return nil, err
	}

	// Model and display name must be updated at the same time.
	r.active = b.desc
	r.logger.Info("switched model", "model", b.desc.Model, "display_name", displayName)
	return b, nil
}

// checkConfigured verifies the provider prefix of a qualified model name
// has a usable configuration. Credentials themselves are read by the
// Genkit provider plugins; this mirrors what they will require.
func (r *Registry) checkConfigured(model string) error {
	provider, _, ok := strings.Cut(model, "/")
	if !ok {
		return fmt.Errorf("%w: model %q is not provider-qualified", ErrBackendNotConfigured, model)
	}
	switch provider {
	case "googleai":
		if !r.cfg.HasGeminiKey() {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrBackendNotConfigured)
		}
	case "openai":
		if !r.cfg.HasOpenAIKey() {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrBackendNotConfigured)
		}
	case "ollama":
		if r.cfg.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host is empty", ErrBackendNotConfigured)
		}
	case "mock":
		// Test models are always configured.
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrBackendNotConfigured, provider)
	}
	return nil
}

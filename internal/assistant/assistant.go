// Package assistant is the inbound surface of the conversation engine.
// It owns the transcript, wires the pipeline manager to the model
// registry and index cache, and exposes the operations the UI calls:
// send, edit, run command, switch model or strategy, rebuild index.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/quillnote/quill/internal/backend"
	"github.com/quillnote/quill/internal/chain"
	"github.com/quillnote/quill/internal/commands"
	"github.com/quillnote/quill/internal/config"
	"github.com/quillnote/quill/internal/conversation"
	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/memory"
	"github.com/quillnote/quill/internal/prompt"
	"github.com/quillnote/quill/internal/vectordb"
)

// ErrNoActiveDocument indicates a retrieval operation was requested
// before any document was set active.
var ErrNoActiveDocument = errors.New("no active document")

// Assistant coordinates one conversation session. Generation
// operations (SendMessage, EditMessage, RunCommand) are serialized;
// cancellation goes through their contexts.
type Assistant struct {
	cfg      *config.Config
	logger   log.Logger
	registry *backend.Registry
	window   *memory.Window
	log      *conversation.Log
	replayer *conversation.Replayer
	cache    *vectordb.Cache
	manager  *chain.Manager
	commands *commands.Registry

	genMu sync.Mutex // one generation in flight at a time

	docMu     sync.Mutex
	activeDoc string // content of the active document, "" when none
}

// New builds an assistant from loaded configuration. The pipeline
// starts in direct chat on the configured model.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := backend.InitGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing model runtime: %w", err)
	}

	registry, err := backend.NewRegistry(g, cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder := backend.Embedder(g, cfg)
	cache := vectordb.NewCache(cfg.IndexDir, embedder, cfg.ChunkSize, logger)
	if issue := cache.PersistenceIssue(); issue != nil {
		logger.Warn("index persistence degraded", "error", issue)
	}

	window := memory.NewWindow(cfg.ContextTurns)
	convLog := conversation.NewLog()

	manager, err := chain.New(chain.Config{
		Registry:      registry,
		Memory:        window,
		Assembler:     prompt.New(cfg.SystemPrompt),
		Cache:         cache,
		RetrievalTopK: cfg.RetrievalTopK,
	}, logger)
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		window:   window,
		log:      convLog,
		replayer: conversation.NewReplayer(convLog, window),
		cache:    cache,
		manager:  manager,
		commands: commands.NewRegistry(),
	}

	if err := manager.SelectDirect(chain.SelectOptions{}); err != nil {
		// The session still opens; the first send reports the problem.
		logger.Warn("initial pipeline selection failed", "error", err)
	}
	return a, nil
}

// Close releases held resources (the index directory lock).
func (a *Assistant) Close() error {
	return a.cache.Close()
}

// Transcript returns a copy of the conversation transcript.
func (a *Assistant) Transcript() []conversation.Message {
	return a.log.Messages()
}

// Strategy returns the active pipeline kind.
func (a *Assistant) Strategy() chain.Kind {
	return a.manager.Kind()
}

// ActiveModel returns the active model descriptor.
func (a *Assistant) ActiveModel() backend.Descriptor {
	return a.registry.Active()
}

// Models returns the catalog display names available for switching.
func (a *Assistant) Models() []string {
	return a.registry.DisplayNames()
}

// Commands returns the available one-shot commands.
func (a *Assistant) Commands() []commands.Command {
	return a.commands.List()
}

// SendMessage records the user message, runs the active pipeline, and
// records the assistant response. Streaming deltas go to onDelta. On
// failure, cancellation included, the user message stays in the
// transcript with no paired response.
func (a *Assistant) SendMessage(ctx context.Context, text string, onDelta chain.OnDelta) (conversation.Message, error) {
	a.genMu.Lock()
	defer a.genMu.Unlock()

	a.log.AppendUser(text)
	return a.generate(ctx, text, onDelta)
}

// generate runs the pipeline for input and appends the response to the
// transcript. Callers hold genMu.
func (a *Assistant) generate(ctx context.Context, input string, onDelta chain.OnDelta) (conversation.Message, error) {
	res, err := a.manager.Run(ctx, input, onDelta)
	if err != nil {
		return conversation.Message{}, err
	}
	// An empty completion emits no message; a phantom entry would pair
	// with the user input on replay.
	if res.Text == "" {
		return conversation.Message{}, nil
	}
	return a.log.AppendAssistant(res.Text), nil
}

// EditMessage rewrites a prior user message, discards everything after
// it, and regenerates the response as if the edited text had been sent
// originally.
func (a *Assistant) EditMessage(ctx context.Context, id uuid.UUID, newText string, onDelta chain.OnDelta) (conversation.Message, error) {
	a.genMu.Lock()
	defer a.genMu.Unlock()

	input, err := a.replayer.Edit(id, newText)
	if err != nil {
		return conversation.Message{}, err
	}
	return a.generate(ctx, input, onDelta)
}

// RunCommand applies a one-shot transformation to the given text. The
// result is appended to the transcript as visible but out of chain, so
// it never influences later turns. arg carries the command argument
// (target language, tone) and may be empty.
func (a *Assistant) RunCommand(ctx context.Context, name, text, arg string, onDelta chain.OnDelta) (string, error) {
	cmd, err := a.commands.Get(name)
	if err != nil {
		return "", err
	}
	return a.runCommand(ctx, cmd, text, arg, onDelta)
}

// RunCustomCommand applies a free-form instruction to the given text.
func (a *Assistant) RunCustomCommand(ctx context.Context, instruction, text string, onDelta chain.OnDelta) (string, error) {
	return a.runCommand(ctx, commands.Custom(instruction), text, "", onDelta)
}

func (a *Assistant) runCommand(ctx context.Context, cmd commands.Command, text, arg string, onDelta chain.OnDelta) (string, error) {
	if cmd.NeedsArg && arg == "" {
		return "", fmt.Errorf("command %q requires an argument", cmd.Name)
	}

	a.genMu.Lock()
	defer a.genMu.Unlock()

	b, err := a.registry.ResolveActive()
	if err != nil {
		return "", err
	}
	b = b.WithTemperature(cmd.Temperature)

	var out string
	msgs := []*ai.Message{ai.NewUserMessage(ai.NewTextPart(cmd.Prompt(text, arg)))}
	resp, err := b.Stream(ctx, "", msgs, nil, func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		out += chunk.Text()
		if onDelta != nil {
			onDelta(chunk.Text())
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	result := resp.Text()
	if result == "" {
		result = out
	}
	a.log.Append(conversation.SenderAssistant, result, true, false)
	return result, nil
}

// SwitchModel changes the active model and rebuilds the pipeline in
// place, preserving strategy, memory, and transcript. On failure the
// previous model and pipeline stay active.
func (a *Assistant) SwitchModel(ctx context.Context, displayName string) error {
	prior := a.registry.Active()
	if _, err := a.registry.Switch(displayName); err != nil {
		return err
	}

	if err := a.reselect(ctx); err != nil {
		// Roll the registry back so model and pipeline agree.
		if _, rbErr := a.registry.Switch(prior.DisplayName); rbErr != nil {
			a.logger.Warn("rollback after failed model switch", "error", rbErr)
		}
		return err
	}
	return nil
}

// SwitchStrategy moves between direct chat and retrieval QA. Retrieval
// requires an active document.
func (a *Assistant) SwitchStrategy(ctx context.Context, kind chain.Kind) error {
	switch kind {
	case chain.KindDirectChat:
		return a.manager.SelectDirect(chain.SelectOptions{})
	case chain.KindRetrievalQA:
		doc := a.activeDocument()
		if doc == "" {
			return ErrNoActiveDocument
		}
		return a.manager.SelectRetrieval(ctx, doc, chain.SelectOptions{})
	default:
		return fmt.Errorf("cannot switch to strategy %q", kind)
	}
}

// SetActiveDocument registers the document retrieval operates over.
// When retrieval QA is already active, the pipeline is rebuilt over the
// new document immediately.
func (a *Assistant) SetActiveDocument(ctx context.Context, content string) error {
	a.docMu.Lock()
	a.activeDoc = content
	a.docMu.Unlock()

	if a.manager.Kind() == chain.KindRetrievalQA {
		return a.manager.SelectRetrieval(ctx, content, chain.SelectOptions{})
	}
	return nil
}

func (a *Assistant) activeDocument() string {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	return a.activeDoc
}

// RebuildIndex discards the active document's index and re-embeds it,
// reinstalling the retrieval pipeline when one is active.
func (a *Assistant) RebuildIndex(ctx context.Context) error {
	doc := a.activeDocument()
	if doc == "" {
		return ErrNoActiveDocument
	}

	if a.manager.Kind() == chain.KindRetrievalQA {
		return a.manager.SelectRetrieval(ctx, doc, chain.SelectOptions{Force: true})
	}
	_, err := a.cache.Build(ctx, doc, true)
	return err
}

// NewConversation clears the transcript and memory. The active
// pipeline, model, and document index all survive.
func (a *Assistant) NewConversation() {
	a.genMu.Lock()
	defer a.genMu.Unlock()

	a.log.Clear()
	a.window.Clear()
}

// CountTokens estimates the token cost of text on the active model.
func (a *Assistant) CountTokens(text string) (int, error) {
	b, err := a.registry.ResolveActive()
	if err != nil {
		return 0, err
	}
	return b.CountTokens(text), nil
}

// reselect rebuilds the active pipeline kind on the current model.
func (a *Assistant) reselect(ctx context.Context) error {
	switch a.manager.Kind() {
	case chain.KindRetrievalQA:
		return a.manager.SelectRetrieval(ctx, a.activeDocument(), chain.SelectOptions{})
	default:
		return a.manager.SelectDirect(chain.SelectOptions{Force: true})
	}
}

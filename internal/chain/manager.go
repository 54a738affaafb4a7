package chain

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/firebase/genkit/go/ai"

	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/vectordb"
)

// Manager owns the active pipeline and the shared conversation state
// that survives pipeline swaps (memory, prompt assembly).
//
// Selections are serialized: two concurrent selections resolve in some
// order and the later one wins. A failed selection leaves the previous
// pipeline installed and usable.
type Manager struct {
	cfg    Config
	logger log.Logger

	mu     sync.Mutex // serializes selections
	active atomic.Pointer[Pipeline]
}

// New creates a Manager. The pipeline starts uninitialized; Run falls
// back to a direct selection when none has been made yet.
func New(cfg Config, logger log.Logger) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, logger: logger}, nil
}

// Kind returns the active strategy, KindUninitialized before the first
// successful selection.
func (m *Manager) Kind() Kind {
	if p := m.active.Load(); p != nil {
		return p.kind
	}
	return KindUninitialized
}

// Active returns the installed pipeline, nil before the first selection.
func (m *Manager) Active() *Pipeline { return m.active.Load() }

// SelectOptions tune pipeline construction.
type SelectOptions struct {
	// SuppressSystem omits the system message entirely, for models
	// that bill or reject system-role input.
	SuppressSystem bool

	// Force rebuilds the pipeline even when an equivalent one is
	// already installed. For retrieval it also discards the existing
	// document index and re-embeds.
	Force bool
}

// SelectDirect installs a direct-chat pipeline on the active model.
// On failure the previously installed pipeline is retained.
func (m *Manager) SelectDirect(opts SelectOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !opts.Force {
		if p := m.active.Load(); p != nil && p.kind == KindDirectChat &&
			p.backend.Descriptor() == m.cfg.Registry.Active() &&
			p.suppressSystem == opts.SuppressSystem {
			return nil
		}
	}

	b, err := m.cfg.Registry.ResolveActive()
	if err != nil {
		m.logger.Warn("direct pipeline selection failed, retaining prior",
			"error", err)
		return err
	}

	m.install(&Pipeline{
		kind:           KindDirectChat,
		backend:        b,
		suppressSystem: opts.SuppressSystem,
	})
	return nil
}

// SelectRetrieval installs a retrieval-QA pipeline over the given
// document content, building (or reusing) its index. On failure —
// unresolvable backend, empty document, embedding outage — the
// previously installed pipeline is retained.
func (m *Manager) SelectRetrieval(ctx context.Context, docContent string, opts SelectOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.cfg.Registry.ResolveActive()
	if err != nil {
		m.logger.Warn("retrieval pipeline selection failed, retaining prior",
			"error", err)
		return err
	}

	_, hit := m.cfg.Cache.Lookup(vectordb.Hash(docContent))
	reused := hit && !opts.Force

	entry, err := m.cfg.Cache.Build(ctx, docContent, opts.Force)
	if err != nil {
		m.logger.Warn("index build failed, retaining prior pipeline",
			"error", err)
		return err
	}

	// Fresh builds get query expansion; an index rehydrated from a
	// cache hit is queried directly.
	var expand vectordb.QueryExpander
	if !reused {
		expand = newQueryExpander(b)
	}
	retriever := vectordb.NewRetriever(entry, expand, m.cfg.RetrievalTopK, m.logger)
	m.install(&Pipeline{
		kind:           KindRetrievalQA,
		backend:        b,
		retriever:      retriever,
		suppressSystem: opts.SuppressSystem,
	})
	return nil
}

func (m *Manager) install(p *Pipeline) {
	m.active.Store(p)
	m.logger.Debug("pipeline installed",
		"kind", p.kind.String(),
		"model", p.backend.Descriptor().Model)
}

// Result is the outcome of one run.
type Result struct {
	Text    string
	Partial bool // true when the stream was cancelled mid-response
	Sources []*ai.Document
}

// OnDelta receives each streamed text fragment as it arrives.
type OnDelta func(delta string)

// Run sends input through the active pipeline, streaming deltas to
// onDelta (which may be nil) and committing the completed turn to
// memory. The pipeline is snapshotted at entry, so a concurrent
// selection does not affect a run already in flight.
//
// Cancellation via ctx stops the stream. Deltas already delivered to
// onDelta are not rolled back, but the turn is not committed to memory;
// the partial text is returned alongside the context error so callers
// can report what was shown.
func (m *Manager) Run(ctx context.Context, input string, onDelta OnDelta) (*Result, error) {
	p := m.active.Load()
	if p == nil {
		// No pipeline survives a failed startup selection; retry the
		// default direct strategy so the caller sees the underlying
		// cause (an unconfigured backend) rather than a bare
		// uninitialized error.
		if err := m.SelectDirect(SelectOptions{}); err != nil {
			return nil, err
		}
		p = m.active.Load()
	}

	var docs []*ai.Document
	if p.kind == KindRetrievalQA {
		var err error
		docs, err = p.retriever.Retrieve(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	msgs := m.cfg.Assembler.Assemble(m.cfg.Memory, input)
	system := m.cfg.Assembler.System(p.suppressSystem)

	m.logger.Debug("running pipeline",
		"kind", p.kind.String(),
		"model", p.backend.Descriptor().Model,
		"messages", len(msgs),
		"context_docs", len(docs),
		"token_estimate", p.backend.CountMessagesTokens(msgs))

	var sb strings.Builder
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		text := chunk.Text()
		sb.WriteString(text)
		if onDelta != nil {
			onDelta(text)
		}
		return nil
	}

	resp, err := p.backend.Stream(ctx, system, msgs, docs, cb)
	if err != nil {
		return m.finishFailed(ctx, sb.String(), err)
	}

	text := resp.Text()
	if text == "" {
		text = sb.String()
	}
	m.commit(input, text)
	return &Result{Text: text, Sources: docs}, nil
}

// finishFailed classifies a generation error. A cancelled run leaves
// memory untouched regardless of how much output had accumulated.
func (m *Manager) finishFailed(ctx context.Context, partial string, err error) (*Result, error) {
	if ctx.Err() != nil {
		if partial != "" {
			return &Result{Text: partial, Partial: true}, ctx.Err()
		}
		return nil, ctx.Err()
	}
	if isModelNotFound(err) {
		return nil, &ModelNotFoundError{cause: err}
	}
	return nil, err
}

// commit records a completed turn. Empty outputs are not recorded so a
// failed generation never pollutes the window.
func (m *Manager) commit(input, output string) {
	if output == "" {
		return
	}
	m.cfg.Memory.Append(input, output)
}

// isModelNotFound matches the provider error code for a missing or
// inaccessible model.
func isModelNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "model_not_found")
}

// Package chain selects and runs the conversation pipeline.
//
// A pipeline binds one strategy (direct chat or retrieval QA) to one
// model backend and, for retrieval, one document index. Pipelines are
// immutable; switching strategy or model installs a fresh pipeline
// atomically, so a run that is already streaming keeps the pipeline it
// started with.
package chain

import (
	"errors"
	"fmt"

	"github.com/quillnote/quill/internal/backend"
	"github.com/quillnote/quill/internal/memory"
	"github.com/quillnote/quill/internal/prompt"
	"github.com/quillnote/quill/internal/vectordb"
)

// ErrModelNotFound indicates the provider rejected the requested
// model (revoked access, typo, retired model).
var ErrModelNotFound = errors.New("model not found")

// ModelNotFoundError carries the provider's original rejection while
// matching ErrModelNotFound under errors.Is. The payload matters: it
// distinguishes revoked access from a plain typo in the model name.
type ModelNotFoundError struct {
	cause error
}

func (e *ModelNotFoundError) Error() string {
	return "model not found: " + e.cause.Error()
}

func (e *ModelNotFoundError) Unwrap() error { return e.cause }

func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// Kind identifies the active pipeline strategy.
type Kind int

const (
	KindUninitialized Kind = iota
	KindDirectChat
	KindRetrievalQA
)

func (k Kind) String() string {
	switch k {
	case KindDirectChat:
		return "direct-chat"
	case KindRetrievalQA:
		return "retrieval-qa"
	default:
		return "uninitialized"
	}
}

// Pipeline is one immutable strategy instance. All fields are fixed at
// construction; a new selection builds a new pipeline.
type Pipeline struct {
	kind           Kind
	backend        *backend.Backend
	retriever      *vectordb.Retriever // nil for direct chat
	suppressSystem bool
}

// Kind returns the pipeline's strategy.
func (p *Pipeline) Kind() Kind { return p.kind }

// Backend returns the model backend the pipeline generates through.
func (p *Pipeline) Backend() *backend.Backend { return p.backend }

// Config assembles a Manager's collaborators.
type Config struct {
	Registry  *backend.Registry
	Memory    *memory.Window
	Assembler *prompt.Assembler
	Cache     *vectordb.Cache

	// RetrievalTopK caps how many chunks a retrieval pipeline attaches
	// per question.
	RetrievalTopK int
}

func (c *Config) validate() error {
	if c.Registry == nil {
		return fmt.Errorf("chain config: registry is required")
	}
	if c.Memory == nil {
		return fmt.Errorf("chain config: memory is required")
	}
	if c.Assembler == nil {
		return fmt.Errorf("chain config: assembler is required")
	}
	if c.Cache == nil {
		return fmt.Errorf("chain config: cache is required")
	}
	if c.RetrievalTopK < 1 {
		return fmt.Errorf("chain config: retrieval top-k must be positive, got %d", c.RetrievalTopK)
	}
	return nil
}

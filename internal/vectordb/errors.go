package vectordb

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocumentContent indicates an index was requested for a
	// document with no extractable text.
	ErrNoDocumentContent = errors.New("document has no content to index")

	// ErrEmbeddingUnavailable indicates the embedding backend could not
	// produce vectors (missing credential, unreachable host, provider
	// rejection).
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
)

// PersistenceError wraps a failure of the on-disk index store. The cache
// keeps operating in memory when one occurs; callers surface the wrapped
// cause to the user.
type PersistenceError struct {
	Op  string // operation that failed, e.g. "open", "lock"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("index persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Package memory implements the bounded conversational memory window.
//
// The window holds recent (input, output) turn pairs in order and evicts
// the oldest pair once capacity is exceeded — a sliding window, never a
// summary. It is the single source of conversational context fed to a
// pipeline; the conversation log owns the messages themselves and the
// window only holds a derived copy.
package memory

import (
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// Turn is one completed conversational exchange.
type Turn struct {
	Input  string
	Output string
}

// Window is a bounded, ordered buffer of turn pairs.
//
// Capacity is 2×N pairs for N configured context turns, matching the
// pricing-relevant window the chat prompt is built from. Mutated only by
// the streaming runner (on completion) and the replay controller (on
// reset+replay); callers must not reach into it directly.
//
// The zero value is not useful — use NewWindow.
type Window struct {
	mu       sync.RWMutex
	capacity int
	turns    []Turn
}

// NewWindow creates a window holding at most 2×contextTurns pairs.
// contextTurns values below 1 are treated as 1.
func NewWindow(contextTurns int) *Window {
	if contextTurns < 1 {
		contextTurns = 1
	}
	return &Window{capacity: contextTurns * 2}
}

// Capacity returns the maximum number of turn pairs retained.
func (w *Window) Capacity() int {
	return w.capacity
}

// Load returns a copy of the retained turn pairs, oldest first.
func (w *Window) Load() []Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Append records a completed turn, evicting the oldest pair if the
// window is full. The capacity invariant holds after every call.
func (w *Window) Append(input, output string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, Turn{Input: input, Output: output})
	if len(w.turns) > w.capacity {
		// Shift rather than re-slice so evicted turns are collectable.
		n := copy(w.turns, w.turns[len(w.turns)-w.capacity:])
		w.turns = w.turns[:n]
	}
}

// Clear removes all turns. Authoritative: replay must repopulate through
// Append afterwards.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = w.turns[:0]
}

// Len returns the number of retained turn pairs.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.turns)
}

// Messages renders the retained turns as an ordered user/model message
// sequence for prompt assembly.
func (w *Window) Messages() []*ai.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	msgs := make([]*ai.Message, 0, len(w.turns)*2)
	for _, t := range w.turns {
		msgs = append(msgs,
			ai.NewUserMessage(ai.NewTextPart(t.Input)),
			ai.NewModelMessage(ai.NewTextPart(t.Output)),
		)
	}
	return msgs
}

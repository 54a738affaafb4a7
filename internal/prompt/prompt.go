// Package prompt assembles the ordered message sequence fed to a model
// backend: system instruction, conversation history, current input.
package prompt

import (
	"github.com/firebase/genkit/go/ai"
)

// DefaultSystemPrompt is used when no user system prompt is configured.
const DefaultSystemPrompt = "You are a helpful assistant for a note-taking app. " +
	"Answer the user's questions about their notes concisely and accurately."

// History supplies the conversation context for assembly. *memory.Window
// satisfies it.
type History interface {
	Messages() []*ai.Message
}

// Assembler builds prompt message sequences for a fixed system instruction.
type Assembler struct {
	system string
}

// New creates an Assembler with the given system instruction. An empty
// instruction falls back to DefaultSystemPrompt.
func New(system string) *Assembler {
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Assembler{system: system}
}

// System returns the system instruction, or the empty string when
// suppressed. Suppression must omit the instruction entirely rather than
// substitute an empty message: backends price and interpret an absent
// system message differently from an empty one.
func (a *Assembler) System(suppress bool) string {
	if suppress {
		return ""
	}
	return a.system
}

// Assemble builds the message sequence [history..., input].
// The system instruction travels separately (see System) so the backend
// can omit it entirely in suppressed mode.
func (a *Assembler) Assemble(history History, input string) []*ai.Message {
	var msgs []*ai.Message
	if history != nil {
		msgs = history.Messages()
	}
	return append(msgs, ai.NewUserMessage(ai.NewTextPart(input)))
}

// AssembleWithOverride behaves like Assemble but replaces the current
// input with a caller-supplied prompt. Used by the command/replay path,
// where the one-shot prompt is the whole input.
func (a *Assembler) AssembleWithOverride(history History, override string) []*ai.Message {
	return a.Assemble(history, override)
}

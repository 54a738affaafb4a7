// Package conversation keeps the visible transcript and its edit
// semantics.
//
// The transcript is the source of truth for what the user sees; the
// model-facing memory window is derived state. Editing a message
// truncates everything after it and rebuilds the window from the
// surviving transcript, so a replayed conversation is indistinguishable
// from one that reached the same state directly.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMessageNotFound indicates the referenced message is not in the
	// transcript.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoUserMessage indicates an edit or replay had no user message
	// to re-run.
	ErrNoUserMessage = errors.New("no user message to replay")
)

// Message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one transcript entry.
//
// Visible controls rendering; InChain controls whether the message
// participates in model context. The two are independent: a one-shot
// command result is visible but out of chain, a hidden context note can
// be in chain but not rendered.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Text      string
	Visible   bool
	InChain   bool
	CreatedAt time.Time
}

// Log is an append-truncate transcript. Safe for concurrent use.
type Log struct {
	mu   sync.RWMutex
	msgs []Message
}

func NewLog() *Log {
	return &Log{}
}

// Append adds a message with a fresh ID and returns it.
func (l *Log) Append(sender, text string, visible, inChain bool) Message {
	msg := Message{
		ID:        uuid.New(),
		Sender:    sender,
		Text:      text,
		Visible:   visible,
		InChain:   inChain,
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	return msg
}

// AppendUser adds a visible, in-chain user message.
func (l *Log) AppendUser(text string) Message {
	return l.Append(SenderUser, text, true, true)
}

// AppendAssistant adds a visible, in-chain assistant message.
func (l *Log) AppendAssistant(text string) Message {
	return l.Append(SenderAssistant, text, true, true)
}

// Messages returns a copy of the transcript.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len returns the transcript length.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}

// Find returns the message with the given ID and its position.
func (l *Log) Find(id uuid.UUID) (Message, int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, msg := range l.msgs {
		if msg.ID == id {
			return msg, i, true
		}
	}
	return Message{}, 0, false
}

// Clear empties the transcript.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = nil
}

// rewrite replaces the text of the identified message and drops every
// message after it.
func (l *Log) rewrite(id uuid.UUID, text string) (Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.msgs {
		if l.msgs[i].ID == id {
			l.msgs[i].Text = text
			l.msgs = l.msgs[:i+1]
			return l.msgs[i], nil
		}
	}
	return Message{}, ErrMessageNotFound
}

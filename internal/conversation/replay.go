package conversation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/quillnote/quill/internal/memory"
)

// Replayer applies edits to the transcript and rebuilds the derived
// memory window so the next generation sees exactly the surviving
// history.
type Replayer struct {
	log    *Log
	window *memory.Window
}

func NewReplayer(log *Log, window *memory.Window) *Replayer {
	return &Replayer{log: log, window: window}
}

// Edit replaces the text of the user message id, discards every later
// message, and rebuilds the memory window from the surviving in-chain
// transcript. It returns the input to re-run, which is the edited
// message's new text.
//
// Only user messages are editable; the paired assistant response is
// regenerated, not rewritten.
func (r *Replayer) Edit(id uuid.UUID, newText string) (string, error) {
	msg, _, ok := r.log.Find(id)
	if !ok {
		return "", fmt.Errorf("editing message %s: %w", id, ErrMessageNotFound)
	}
	if msg.Sender != SenderUser {
		return "", fmt.Errorf("editing message %s: %w", id, ErrNoUserMessage)
	}

	if _, err := r.log.rewrite(id, newText); err != nil {
		return "", fmt.Errorf("editing message %s: %w", id, err)
	}

	input, err := r.Rebuild()
	if err != nil {
		return "", err
	}
	return input, nil
}

// Rebuild reconstructs the memory window from the in-chain transcript
// and returns the trailing unanswered user input. User inputs are held
// pending until the following in-chain assistant message completes the
// turn; the final pending input, if any, is the one awaiting a
// response.
func (r *Replayer) Rebuild() (string, error) {
	r.window.Clear()

	var pending string
	var havePending bool
	for _, msg := range r.log.Messages() {
		if !msg.InChain {
			continue
		}
		switch msg.Sender {
		case SenderUser:
			pending = msg.Text
			havePending = true
		case SenderAssistant:
			if havePending {
				r.window.Append(pending, msg.Text)
				pending = ""
				havePending = false
			}
		}
	}

	if !havePending {
		return "", ErrNoUserMessage
	}
	return pending, nil
}

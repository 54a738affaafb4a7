package conversation

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/quillnote/quill/internal/memory"
)

func TestLog_AppendAndOrder(t *testing.T) {
	t.Parallel()

	l := NewLog()
	u := l.AppendUser("question")
	a := l.AppendAssistant("answer")

	msgs := l.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Len = %d, want 2", len(msgs))
	}
	if msgs[0].ID != u.ID || msgs[1].ID != a.ID {
		t.Error("messages out of append order")
	}
	if msgs[0].Sender != SenderUser || msgs[1].Sender != SenderAssistant {
		t.Errorf("senders = %q, %q", msgs[0].Sender, msgs[1].Sender)
	}
	if u.ID == a.ID {
		t.Error("messages share an ID")
	}
}

func TestLog_MessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.AppendUser("original")

	msgs := l.Messages()
	msgs[0].Text = "mutated"
	if l.Messages()[0].Text != "original" {
		t.Error("Messages() exposed internal state")
	}
}

func TestLog_Find(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.AppendUser("first")
	target := l.AppendAssistant("second")

	got, idx, ok := l.Find(target.ID)
	if !ok || idx != 1 || got.Text != "second" {
		t.Errorf("Find() = (%+v, %d, %v)", got, idx, ok)
	}

	if _, _, ok := l.Find(uuid.New()); ok {
		t.Error("Find() located a nonexistent message")
	}
}

func newReplayFixture(t *testing.T) (*Log, *memory.Window, *Replayer) {
	t.Helper()
	l := NewLog()
	w := memory.NewWindow(5)
	return l, w, NewReplayer(l, w)
}

func TestReplayer_EditMidConversation(t *testing.T) {
	t.Parallel()

	l, w, r := newReplayFixture(t)
	l.AppendUser("q1")
	l.AppendAssistant("a1")
	edited := l.AppendUser("q2")
	l.AppendAssistant("a2")
	l.AppendUser("q3")
	l.AppendAssistant("a3")

	input, err := r.Edit(edited.ID, "q2 revised")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if input != "q2 revised" {
		t.Errorf("replay input = %q, want %q", input, "q2 revised")
	}

	// Transcript keeps everything through the edited message, nothing
	// after.
	msgs := l.Messages()
	if len(msgs) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(msgs))
	}
	if msgs[2].Text != "q2 revised" {
		t.Errorf("edited text = %q", msgs[2].Text)
	}

	// Memory holds exactly the turns before the edit, as if the
	// conversation had stopped there.
	turns := w.Load()
	if len(turns) != 1 || turns[0].Input != "q1" || turns[0].Output != "a1" {
		t.Errorf("rebuilt memory = %+v, want the single q1/a1 turn", turns)
	}
}

func TestReplayer_EditFirstMessage(t *testing.T) {
	t.Parallel()

	l, w, r := newReplayFixture(t)
	first := l.AppendUser("q1")
	l.AppendAssistant("a1")
	l.AppendUser("q2")

	input, err := r.Edit(first.ID, "q1 revised")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if input != "q1 revised" {
		t.Errorf("replay input = %q", input)
	}
	if w.Len() != 0 {
		t.Errorf("memory turns = %d, want 0", w.Len())
	}
	if l.Len() != 1 {
		t.Errorf("transcript length = %d, want 1", l.Len())
	}
}

func TestReplayer_EditUnknownMessage(t *testing.T) {
	t.Parallel()

	l, _, r := newReplayFixture(t)
	l.AppendUser("q1")

	if _, err := r.Edit(uuid.New(), "whatever"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("Edit() error = %v, want ErrMessageNotFound", err)
	}
	if l.Len() != 1 {
		t.Error("failed edit mutated the transcript")
	}
}

func TestReplayer_EditAssistantMessageRejected(t *testing.T) {
	t.Parallel()

	l, _, r := newReplayFixture(t)
	l.AppendUser("q1")
	a := l.AppendAssistant("a1")

	if _, err := r.Edit(a.ID, "rewritten answer"); !errors.Is(err, ErrNoUserMessage) {
		t.Errorf("Edit() error = %v, want ErrNoUserMessage", err)
	}
	if l.Messages()[1].Text != "a1" {
		t.Error("rejected edit mutated the assistant message")
	}
}

func TestReplayer_OutOfChainMessagesSkipped(t *testing.T) {
	t.Parallel()

	l, w, r := newReplayFixture(t)
	l.AppendUser("q1")
	l.AppendAssistant("a1")
	// A one-shot command result: visible but out of chain.
	l.Append(SenderAssistant, "command output", true, false)
	edited := l.AppendUser("q2")

	input, err := r.Edit(edited.ID, "q2 revised")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if input != "q2 revised" {
		t.Errorf("replay input = %q", input)
	}

	turns := w.Load()
	if len(turns) != 1 || turns[0].Output != "a1" {
		t.Errorf("rebuilt memory = %+v, out-of-chain message must not pair", turns)
	}
}

func TestReplayer_RebuildWithoutPendingInput(t *testing.T) {
	t.Parallel()

	l, _, r := newReplayFixture(t)
	l.AppendUser("q1")
	l.AppendAssistant("a1")

	if _, err := r.Rebuild(); !errors.Is(err, ErrNoUserMessage) {
		t.Errorf("Rebuild() error = %v, want ErrNoUserMessage", err)
	}
}

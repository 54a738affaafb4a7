package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func TestWindow_AppendAndLoad(t *testing.T) {
	w := NewWindow(2) // capacity 4 pairs

	w.Append("hello", "hi there")
	w.Append("how are you", "fine")

	turns := w.Load()
	if len(turns) != 2 {
		t.Fatalf("Load() returned %d turns, want 2", len(turns))
	}
	if turns[0].Input != "hello" || turns[0].Output != "hi there" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Input != "how are you" || turns[1].Output != "fine" {
		t.Errorf("second turn = %+v", turns[1])
	}
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	contextTurns := 2
	w := NewWindow(contextTurns)
	capacity := contextTurns * 2

	// Append capacity+3 turns; the first 3 must be evicted.
	total := capacity + 3
	for i := 0; i < total; i++ {
		w.Append(fmt.Sprintf("in-%d", i), fmt.Sprintf("out-%d", i))
	}

	turns := w.Load()
	if len(turns) != capacity {
		t.Fatalf("Load() returned %d turns, want %d", len(turns), capacity)
	}
	for i, turn := range turns {
		want := fmt.Sprintf("in-%d", total-capacity+i)
		if turn.Input != want {
			t.Errorf("turn %d input = %q, want %q", i, turn.Input, want)
		}
	}
}

func TestWindow_Clear(t *testing.T) {
	w := NewWindow(3)
	w.Append("a", "b")
	w.Clear()

	if n := w.Len(); n != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", n)
	}
	if msgs := w.Messages(); len(msgs) != 0 {
		t.Fatalf("Messages() after Clear has %d entries, want 0", len(msgs))
	}
}

func TestWindow_Messages_Ordering(t *testing.T) {
	w := NewWindow(3)
	w.Append("q1", "a1")
	w.Append("q2", "a2")

	msgs := w.Messages()
	if len(msgs) != 4 {
		t.Fatalf("Messages() returned %d, want 4", len(msgs))
	}

	wantRoles := []ai.Role{ai.RoleUser, ai.RoleModel, ai.RoleUser, ai.RoleModel}
	wantTexts := []string{"q1", "a1", "q2", "a2"}
	for i, msg := range msgs {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %v, want %v", i, msg.Role, wantRoles[i])
		}
		if got := msg.Text(); got != wantTexts[i] {
			t.Errorf("message %d text = %q, want %q", i, got, wantTexts[i])
		}
	}
}

func TestWindow_LoadReturnsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Append("original", "reply")

	turns := w.Load()
	turns[0].Input = "mutated"

	if got := w.Load()[0].Input; got != "original" {
		t.Errorf("internal state mutated through Load() copy: %q", got)
	}
}

func TestWindow_ConcurrentAppend(t *testing.T) {
	w := NewWindow(5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.Append(fmt.Sprintf("in-%d", i), "out")
		}(i)
	}
	wg.Wait()

	if n := w.Len(); n != w.Capacity() {
		t.Fatalf("Len() = %d, want capacity %d", n, w.Capacity())
	}
}

package vectordb

import (
	"strings"
	"testing"
)

func TestSplitter_EmptyText(t *testing.T) {
	t.Parallel()

	s := NewSplitter(100)
	if got := s.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	if got := s.Split("   \n\n  "); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	s := NewSplitter(100)
	got := s.Split("a short note")
	if len(got) != 1 || got[0] != "a short note" {
		t.Errorf("Split() = %v, want single unchanged chunk", got)
	}
}

func TestSplitter_ChunksRespectSize(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("paragraph about topic number xyz with enough words to matter.\n\n")
	}

	s := NewSplitter(200)
	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 200 {
			t.Errorf("chunk %d has %d runes, exceeds size", i, n)
		}
	}
}

func TestSplitter_PrefersParagraphBoundaries(t *testing.T) {
	t.Parallel()

	first := strings.Repeat("a", 80)
	second := strings.Repeat("b", 80)
	s := &Splitter{ChunkSize: 100, Overlap: 0}

	chunks := s.Split(first + "\n\n" + second)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %v", len(chunks), chunks)
	}
	if chunks[0] != first || chunks[1] != second {
		t.Errorf("chunks not split at paragraph boundary: %q / %q", chunks[0], chunks[1])
	}
}

func TestSplitter_OversizedWordFallsBackToRunes(t *testing.T) {
	t.Parallel()

	s := &Splitter{ChunkSize: 50, Overlap: 10}
	chunks := s.Split(strings.Repeat("x", 130))
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want >= 3", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 50 {
			t.Errorf("chunk %d exceeds size: %d runes", i, len([]rune(chunk)))
		}
	}

	// Full content must be covered.
	joined := strings.Join(chunks, "")
	if !strings.Contains(joined, strings.Repeat("x", 50)) {
		t.Error("rune windows lost content")
	}
}

func TestSplitter_OverlapCarriesContext(t *testing.T) {
	t.Parallel()

	s := &Splitter{ChunkSize: 50, Overlap: 10}
	chunks := s.Split(strings.Repeat("y", 120))
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	// With step = size - overlap, total coverage exceeds input length.
	total := 0
	for _, chunk := range chunks {
		total += len([]rune(chunk))
	}
	if total <= 120 {
		t.Errorf("total chunk runes = %d, expected overlap to exceed input length 120", total)
	}
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	a := Hash("some document content")
	b := Hash("some document content")
	if a != b {
		t.Errorf("Hash() not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Hash() length = %d, want 64 hex chars", len(a))
	}
	if Hash("other content") == a {
		t.Error("different content produced identical hash")
	}
}

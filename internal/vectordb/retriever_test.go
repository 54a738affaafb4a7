package vectordb

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/quillnote/quill/internal/log"
	"github.com/quillnote/quill/internal/testutil"
)

func buildTestEntry(t *testing.T) *Entry {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockEmbedder(8)
	embedder := mock.Register(g)

	c := NewCache("", embedder, testChunkSize, log.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	entry, err := c.Build(context.Background(), testDocument(), false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return entry
}

func TestRetriever_ReturnsAtMostTopK(t *testing.T) {
	t.Parallel()

	entry := buildTestEntry(t)
	r := NewRetriever(entry, nil, 2, log.NewNop())

	docs, err := r.Retrieve(context.Background(), "search feature plans")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) == 0 || len(docs) > 2 {
		t.Errorf("got %d documents, want 1..2", len(docs))
	}
}

func TestRetriever_TopKClampedToIndexSize(t *testing.T) {
	t.Parallel()

	entry := buildTestEntry(t)
	r := NewRetriever(entry, nil, 100, log.NewNop())

	docs, err := r.Retrieve(context.Background(), "open risks")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) > entry.Len() {
		t.Errorf("got %d documents from an index of %d chunks", len(docs), entry.Len())
	}
}

func TestRetriever_ExpansionWidensButDeduplicates(t *testing.T) {
	t.Parallel()

	entry := buildTestEntry(t)
	expand := func(_ context.Context, query string) ([]string, error) {
		return []string{query + " rephrased", "what did we decide"}, nil
	}
	r := NewRetriever(entry, expand, entry.Len(), log.NewNop())

	docs, err := r.Retrieve(context.Background(), "search feature plans")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		id, _ := doc.Metadata["id"].(string)
		if seen[id] {
			t.Errorf("duplicate chunk %q in merged results", id)
		}
		seen[id] = true
	}
}

func TestRetriever_ExpansionFailureFallsBack(t *testing.T) {
	t.Parallel()

	entry := buildTestEntry(t)
	expand := func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("model unavailable")
	}
	r := NewRetriever(entry, expand, 2, log.NewNop())

	docs, err := r.Retrieve(context.Background(), "embedding latency")
	if err != nil {
		t.Fatalf("Retrieve() error = %v, expansion failure must not fail retrieval", err)
	}
	if len(docs) == 0 {
		t.Error("got no documents after expansion fallback")
	}
}

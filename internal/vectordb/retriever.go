package vectordb

import (
	"context"
	"sort"

	"github.com/firebase/genkit/go/ai"

	"github.com/quillnote/quill/internal/log"
)

// QueryExpander produces alternative phrasings of a retrieval query.
// Implementations typically ask a language model to paraphrase.
type QueryExpander func(ctx context.Context, query string) ([]string, error)

// Retriever fetches relevant chunks from one index entry, optionally
// widening recall by querying with expanded variants of the question.
// Results are merged by chunk ID keeping the best similarity.
type Retriever struct {
	entry  *Entry
	expand QueryExpander // nil disables expansion
	topK   int
	logger log.Logger
}

// NewRetriever builds a retriever over an index entry. expand may be
// nil, in which case only the original query is used.
func NewRetriever(entry *Entry, expand QueryExpander, topK int, logger log.Logger) *Retriever {
	return &Retriever{entry: entry, expand: expand, topK: topK, logger: logger}
}

// Entry returns the index entry this retriever reads from.
func (r *Retriever) Entry() *Entry { return r.entry }

// Retrieve returns up to topK chunks relevant to the query as documents
// ready to attach to a generation request.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*ai.Document, error) {
	queries := []string{query}
	if r.expand != nil {
		variants, err := r.expand(ctx, query)
		if err != nil {
			// Expansion is best-effort; the original query still runs.
			r.logger.Debug("query expansion failed", "error", err)
		} else {
			queries = append(queries, variants...)
		}
	}

	best := make(map[string]Result)
	for _, q := range queries {
		if q == "" {
			continue
		}
		results, err := r.entry.Retrieve(ctx, q, r.topK)
		if err != nil {
			// The primary query must succeed; expanded ones may not.
			if q == query {
				return nil, err
			}
			r.logger.Debug("expanded query failed", "error", err)
			continue
		}
		for _, res := range results {
			if prev, ok := best[res.ID]; !ok || res.Similarity > prev.Similarity {
				best[res.ID] = res
			}
		}
	}

	merged := make([]Result, 0, len(best))
	for _, res := range best {
		merged = append(merged, res)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > r.topK {
		merged = merged[:r.topK]
	}

	docs := make([]*ai.Document, 0, len(merged))
	for _, res := range merged {
		docs = append(docs, ai.DocumentFromText(res.Content, map[string]any{
			"id": res.ID,
		}))
	}
	return docs, nil
}

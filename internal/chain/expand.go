package chain

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/quillnote/quill/internal/backend"
	"github.com/quillnote/quill/internal/vectordb"
)

const expandSystemPrompt = `You generate alternative phrasings of a search query ` +
	`to improve document retrieval. Produce exactly 3 rephrasings of the user's ` +
	`question, one per line, with no numbering and no commentary.`

// maxExpandedQueries caps how many variants are used even when the
// model returns more lines than asked.
const maxExpandedQueries = 3

// newQueryExpander builds a vectordb.QueryExpander that asks the model
// for paraphrases at zero temperature.
func newQueryExpander(b *backend.Backend) vectordb.QueryExpander {
	expander := b.WithTemperature(0)
	return func(ctx context.Context, query string) ([]string, error) {
		msgs := []*ai.Message{ai.NewUserMessage(ai.NewTextPart(query))}
		resp, err := expander.Stream(ctx, expandSystemPrompt, msgs, nil, nil)
		if err != nil {
			return nil, err
		}
		return parseExpandedQueries(resp.Text()), nil
	}
}

// parseExpandedQueries splits model output into clean query lines,
// tolerating bullets and numbering the model adds anyway.
func parseExpandedQueries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxExpandedQueries {
			break
		}
	}
	return out
}

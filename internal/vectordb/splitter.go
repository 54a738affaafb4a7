package vectordb

import "strings"

// defaultSeparators orders split boundaries from coarsest to finest:
// paragraph breaks, then line breaks, then word boundaries, then
// individual runes as a last resort.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts document text into chunks of at most ChunkSize runes,
// preferring to break at the coarsest boundary that still fits. Adjacent
// chunks share Overlap runes of context.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter returns a splitter with the given chunk size and a
// proportional overlap (one fifth of the chunk size).
func NewSplitter(chunkSize int) *Splitter {
	return &Splitter{ChunkSize: chunkSize, Overlap: chunkSize / 5}
}

// Split divides text into chunks. Whitespace-only fragments are dropped.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for _, piece := range s.split(text, defaultSeparators) {
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	if len([]rune(text)) <= s.ChunkSize {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	rest := separators
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		parts = runeWindows(text, s.ChunkSize, s.Overlap)
	} else {
		parts = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	pendingLen := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(pending, sep))
		// Keep a tail of parts as overlap for the next chunk.
		for pendingLen > s.Overlap && len(pending) > 1 {
			pendingLen -= len([]rune(pending[0])) + len([]rune(sep))
			pending = pending[1:]
		}
		if s.Overlap == 0 {
			pending = nil
			pendingLen = 0
		}
	}

	for _, part := range parts {
		partLen := len([]rune(part))
		if partLen > s.ChunkSize {
			flush()
			pending = nil
			pendingLen = 0
			// Recurse with finer separators for oversized parts.
			chunks = append(chunks, s.split(part, rest)...)
			continue
		}
		sepLen := 0
		if len(pending) > 0 {
			sepLen = len([]rune(sep))
		}
		if pendingLen+sepLen+partLen > s.ChunkSize {
			flush()
			// Drop the overlap tail when even it cannot share a chunk
			// with this part.
			if len(pending) > 0 && pendingLen+len([]rune(sep))+partLen > s.ChunkSize {
				pending = nil
				pendingLen = 0
			}
		}
		if len(pending) > 0 {
			pendingLen += len([]rune(sep))
		}
		pending = append(pending, part)
		pendingLen += partLen
	}
	if len(pending) > 0 {
		chunks = append(chunks, strings.Join(pending, sep))
	}

	return chunks
}

// runeWindows slices text into fixed-size rune windows with overlap.
func runeWindows(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step < 1 {
		step = 1
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

package backend

import (
	"unicode/utf8"

	"github.com/firebase/genkit/go/ai"
)

// CountTokens estimates how many tokens the given text costs on this
// backend. Uses rune count divided by 2 as a conservative estimate that
// works for both English (~4 chars/token) and CJK (~1.5 chars/token)
// text; exact tokenizers vary per provider and are not worth a network
// round trip for a display figure.
func (b *Backend) CountTokens(text string) int {
	return estimateTokens(text)
}

func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 2
}

// CountMessagesTokens estimates total tokens across messages.
func (b *Backend) CountMessagesTokens(msgs []*ai.Message) int {
	return estimateMessagesTokens(msgs)
}

func estimateMessagesTokens(msgs []*ai.Message) int {
	total := 0
	for _, msg := range msgs {
		for _, part := range msg.Content {
			total += estimateTokens(part.Text)
		}
	}
	return total
}

package vectordb

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex-encoded SHA-256 digest of the document content.
// Index entries are keyed by this digest, so any edit to the content
// yields a new key and the stale index is simply never looked up again.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex-encoded sha256 fingerprint of content.
// It is the document id: identical content always maps to the same id,
// which makes upserts idempotent and is the basis for deduplication.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Package dedup removes content-identical chunks using a deterministic hash.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/studykit/corpus/schema"
)

// Key returns the deterministic deduplication fingerprint of chunk content:
// SHA-256 over the trimmed, lowercased text. Identical content always yields
// the identical key, across runs and processes.
func Key(content string) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Dedupe drops chunks whose content key was already seen in the batch,
// keeping the first occurrence. It is a pure function: the input slice is
// not modified and the surviving set depends only on the input contents.
func Dedupe(chunks []schema.Chunk) []schema.Chunk {
	seen := make(map[string]struct{}, len(chunks))
	unique := make([]schema.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		key := Key(chunk.Content)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, chunk)
	}
	return unique
}

package chunker

import "strings"

// splitByWords re-splits an oversized span on word boundaries into
// sequential sub-spans, preserving order. Every sub-span is at most maxSize
// characters; a single word longer than maxSize is split mid-word as a last
// resort so the bound always holds.
func splitByWords(span string, maxSize int) []string {
	words := strings.Fields(span)
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, word := range words {
		for len(word) > maxSize {
			flush()
			out = append(out, word[:maxSize])
			word = word[maxSize:]
		}
		if word == "" {
			continue
		}
		needed := len(word)
		if current.Len() > 0 {
			needed += current.Len() + 1
		}
		if needed > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()
	return out
}

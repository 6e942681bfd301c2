// Package cleaner normalizes extracted document text before chunking.
package cleaner

import (
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	hyphenBreak  = regexp.MustCompile(`-\n`)
	newlineRuns  = regexp.MustCompile(`\n+`)
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
)

// Clean normalizes raw extracted text: control characters become spaces
// (general non-ASCII content survives), hyphenated line breaks are joined,
// and runs of whitespace and newlines collapse. Clean is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlChars.ReplaceAllString(text, " ")
	text = hyphenBreak.ReplaceAllString(text, "")
	text = newlineRuns.ReplaceAllString(text, "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

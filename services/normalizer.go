package services

import (
	"regexp"
	"strings"
)

var (
	newlineRuns = regexp.MustCompile(`\n+`)
	spaceRuns   = regexp.MustCompile(` +`)
)

// Normalize cleans text extracted from a PDF. Tabs become spaces, newline
// runs and space runs collapse to a single character, and the result is
// trimmed. Tabs are replaced first so they join the space runs.
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\t", " ")
	text = newlineRuns.ReplaceAllString(text, "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

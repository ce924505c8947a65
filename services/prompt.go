package services

import "strings"

// BuildPrompt assembles the completion prompt from the retrieved chunks, in
// the order the vector store returned them.
func BuildPrompt(chunks []ScoredChunk, query string) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return "Context:\n" + strings.Join(texts, "\n") + "\n\nQuestion: " + query + "\nAnswer:"
}

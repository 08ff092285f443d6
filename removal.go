package muffle

import (
	"strings"
	"unicode/utf8"
)

// SnippetLength is the number of characters of removed text kept in a
// RemovalRecord.
const SnippetLength = 100

// Removal describes a single removal as reported by an adapter.
type Removal struct {
	Element Element
	Site    Site
	Text    string
	Word    string
}

// RemovalFunc is called by adapters once per removed unit.
type RemovalFunc func(Removal)

// RemovalRecord is the outbound event emitted for every successful removal.
// It is forwarded to the stats recorder and the diagnostic log and never
// persisted by the core itself.
type RemovalRecord struct {
	Site    Site
	Word    string
	Tag     string
	Classes string
	Snippet string
	Count   int
}

// Snippet truncates text to SnippetLength characters, appending an ellipsis
// when text was cut.
func Snippet(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= SnippetLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:SnippetLength])) + "..."
}

package muffle

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// boundary matches a single rune that cannot be part of a word token.
const boundary = `[^\p{L}\p{N}]`

// Matcher finds blocked words in text. A word matches only when it appears
// as a whole token: the runes on either side must be non-alphanumeric or the
// edge of the text, so "trump" does not match "trumpet".
//
// Compiled patterns are cached per word. Matcher is safe for concurrent use.
type Matcher struct {
	patterns sync.Map // word -> *regexp.Regexp, nil when the word fell back to substring matching
}

// NewMatcher returns a Matcher with an empty pattern cache.
func NewMatcher() *Matcher {
	return &Matcher{}
}

var defaultMatcher = NewMatcher()

// FindMatch reports the first word in words, in list order, that occurs in
// text at a token boundary. Comparison is case-insensitive.
func FindMatch(text string, words []string) (string, bool) {
	return defaultMatcher.FindMatch(text, words)
}

// FindMatch reports the first word in words, in list order, that occurs in
// text at a token boundary. Empty and whitespace-only text never matches.
func (m *Matcher) FindMatch(text string, words []string) (string, bool) {
	if strings.TrimSpace(text) == "" || len(words) == 0 {
		return "", false
	}

	lower := cases.Lower(language.Und).String(text)
	for _, word := range words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		if m.matches(lower, word) {
			return word, true
		}
	}
	return "", false
}

// matches tests a single word against already lowercased text.
func (m *Matcher) matches(lower, word string) bool {
	needle := cases.Lower(language.Und).String(word)
	re := m.pattern(needle)
	if re == nil {
		return strings.Contains(lower, needle)
	}
	return re.MatchString(lower)
}

// pattern returns the cached boundary pattern for a lowercased word.
// It returns nil when the pattern cannot be compiled.
func (m *Matcher) pattern(needle string) *regexp.Regexp {
	if v, ok := m.patterns.Load(needle); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}

	re, err := regexp.Compile(`(?:^|` + boundary + `)` + regexp.QuoteMeta(needle) + `(?:` + boundary + `|$)`)
	if err != nil {
		re = nil
	}
	m.patterns.Store(needle, re)
	return re
}

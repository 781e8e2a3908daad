package semantic

import (
	"strings"

	"github.com/surgebase/porter2"
)

// Stemmer normalizes words to their root forms so different inflections
// of the same term compare equal.
type Stemmer struct {
	minLength  int
	exclusions map[string]bool
}

// NewStemmer builds a stemmer. Words shorter than minLength and words
// on the exclusion list pass through unchanged; short tokens like "go"
// or "id" lose too much meaning when stemmed.
func NewStemmer(minLength int, exclusions ...string) *Stemmer {
	if minLength <= 0 {
		minLength = 3
	}
	excl := make(map[string]bool, len(exclusions))
	for _, w := range exclusions {
		excl[strings.ToLower(w)] = true
	}
	return &Stemmer{minLength: minLength, exclusions: excl}
}

// Stem returns the root form of word, lowercased.
func (s *Stemmer) Stem(word string) string {
	lower := strings.ToLower(word)
	if len(lower) < s.minLength || s.exclusions[lower] {
		return lower
	}
	return porter2.Stem(lower)
}

// StemAll stems each word, preserving order.
func (s *Stemmer) StemAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = s.Stem(w)
	}
	return out
}

func (s *Stemmer) stemSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[s.Stem(w)] = true
	}
	return set
}

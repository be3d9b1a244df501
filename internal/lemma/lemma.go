// Package lemma provides word normalization for keyword matching.
// Course names and knowledge area keywords are reduced to canonical base
// forms so inflected Russian and English words compare equal.
package lemma

import (
	"strings"
	"sync"
	"unicode"

	"github.com/kljensen/snowball"
)

// Normalizer reduces a raw word to its canonical base form.
// Implementations must be deterministic and safe for concurrent use.
type Normalizer interface {
	Normalize(word string) string
}

// Snowball is a stemming-based Normalizer. Cyrillic words go through the
// Russian stemmer, everything else through the English one. Stems are
// memoized since the same course-name vocabulary is normalized repeatedly.
type Snowball struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewSnowball creates a new snowball-backed normalizer.
func NewSnowball() *Snowball {
	return &Snowball{cache: make(map[string]string)}
}

// Normalize returns the lower-cased stem of word.
// Words the stemmer rejects are returned lower-cased unchanged.
func (s *Snowball) Normalize(word string) string {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return ""
	}

	s.mu.RLock()
	stem, ok := s.cache[lower]
	s.mu.RUnlock()
	if ok {
		return stem
	}

	lang := "english"
	if hasCyrillic(lower) {
		lang = "russian"
	}

	stem, err := snowball.Stem(lower, lang, false)
	if err != nil || stem == "" {
		stem = lower
	}

	s.mu.Lock()
	s.cache[lower] = stem
	s.mu.Unlock()

	return stem
}

// TextLemmas normalizes free text into the set of its base-form words:
// lower-case, punctuation stripped, split on whitespace, each token reduced
// through the normalizer. Set semantics, duplicates collapse.
func TextLemmas(n Normalizer, text string) map[string]struct{} {
	var clean strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			clean.WriteRune(r)
		}
	}

	lemmas := make(map[string]struct{})
	for _, word := range strings.Fields(clean.String()) {
		if l := n.Normalize(word); l != "" {
			lemmas[l] = struct{}{}
		}
	}
	return lemmas
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

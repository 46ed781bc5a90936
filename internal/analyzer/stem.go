package analyzer

import (
	"strings"

	"github.com/kljensen/snowball"
)

// Stem reduces word to its English Snowball stem. Words the stemmer rejects
// are returned unchanged.
func Stem(word string) string {
	s, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return s
}

// IsSimilar reports whether a and b share a stem, ignoring case.
func IsSimilar(a, b string) bool {
	return Stem(strings.ToLower(a)) == Stem(strings.ToLower(b))
}

// Excluder drops keywords that stem-match any word of a query.
type Excluder struct {
	stems map[string]struct{}
}

// NewExcluder precomputes the stems of the whitespace-separated query words.
func NewExcluder(query string) *Excluder {
	e := &Excluder{stems: make(map[string]struct{})}
	for _, w := range strings.Fields(query) {
		e.stems[Stem(strings.ToLower(w))] = struct{}{}
	}
	return e
}

// Excluded reports whether word stem-matches a query word.
func (e *Excluder) Excluded(word string) bool {
	_, ok := e.stems[Stem(strings.ToLower(word))]
	return ok
}

// Apply returns counts without the excluded words, order preserved.
func (e *Excluder) Apply(counts *Counter) *Counter {
	return counts.Filter(func(w string) bool { return !e.Excluded(w) })
}

// ExcludeQueryWords is a convenience wrapper around NewExcluder(query).Apply.
func ExcludeQueryWords(counts *Counter, query string) *Counter {
	return NewExcluder(query).Apply(counts)
}

package analyzer

import (
	"bufio"
	_ "embed"
	"strings"
	"sync"
)

//go:embed stopwords_en.txt
var englishStopwords string

// Stopwords is a set of lower-case words excluded from keyword counts.
type Stopwords map[string]struct{}

var loadEnglish = sync.OnceValue(func() Stopwords {
	return ParseStopwords(englishStopwords)
})

// EnglishStopwords returns the shared English stopword set. Callers must not
// modify it.
func EnglishStopwords() Stopwords {
	return loadEnglish()
}

// ParseStopwords reads one word per line. Blank lines and lines starting with
// '#' are ignored.
func ParseStopwords(text string) Stopwords {
	set := make(Stopwords)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Contains reports whether word is in the set. word must already be lower-case.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Package analyzer turns tagged page text into keyword counts and summary
// sentences, and removes keywords that merely repeat the search query.
package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinKeywordLen is the exclusive lower bound on keyword length in runes.
const MinKeywordLen = 2

var contentTags = map[string]bool{
	"p": true, "div": true, "span": true, "a": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
}

var sentenceTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true,
}

// ContentSelector matches every element whose text is tokenized.
const ContentSelector = "p, div, span, a, h1, h2, h3, h4"

// IsContentTag reports whether text under tag is tokenized.
func IsContentTag(tag string) bool { return contentTags[tag] }

// IsSentenceTag reports whether text under tag is collected as a sentence.
func IsSentenceTag(tag string) bool { return sentenceTags[tag] }

// Accumulator collects keyword counts and sentences for a single page.
type Accumulator struct {
	Counts    *Counter
	Sentences []string
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{Counts: NewCounter()}
}

// ProcessFragment tokenizes text found under tag into acc. Tags outside the
// content set are ignored.
func ProcessFragment(acc *Accumulator, tag, text string, stop Stopwords) {
	if !IsContentTag(tag) {
		return
	}
	for _, tok := range Tokenize(text, stop) {
		acc.Counts.Add(tok, 1)
	}
	if IsSentenceTag(tag) {
		if s := strings.TrimSpace(text); s != "" {
			acc.Sentences = append(acc.Sentences, s)
		}
	}
}

// Tokenize splits text on whitespace and returns the candidate keywords in
// order of appearance.
func Tokenize(text string, stop Stopwords) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := normalize(f)
		if keep(tok, stop) {
			out = append(out, tok)
		}
	}
	return out
}

func normalize(tok string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', ':', '"':
			return -1
		}
		return r
	}, strings.ToLower(tok))
}

func keep(tok string, stop Stopwords) bool {
	if utf8.RuneCountInString(tok) <= MinKeywordLen {
		return false
	}
	first, _ := utf8.DecodeRuneInString(tok)
	if !unicode.IsLetter(first) {
		return false
	}
	return !stop.Contains(tok)
}

// Package aggregate merges per-page keyword counts and sentences into the
// run-level top keywords and summary.
package aggregate

import (
	"sort"
	"strings"

	"github.com/FranksOps/serpwords/internal/analyzer"
	"github.com/FranksOps/serpwords/internal/extract"
)

const (
	DefaultTopK      = 10
	DefaultSentences = 10
)

// Keyword is a word and its total count across pages.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Result is the outcome of aggregating all successful pages.
type Result struct {
	Counts    *analyzer.Counter
	Sentences []string
}

// Merge sums counts and concatenates sentences in the order pages are given,
// which is their completion order. Nil pages are skipped.
func Merge(pages []*extract.PageResult) *Result {
	res := &Result{Counts: analyzer.NewCounter()}
	for _, p := range pages {
		if p == nil {
			continue
		}
		res.Counts.Merge(p.Counts)
		res.Sentences = append(res.Sentences, p.Sentences...)
	}
	return res
}

// TopK returns up to k keywords by descending count. Equal counts keep the
// order in which the words were first seen.
func TopK(counts *analyzer.Counter, k int) []Keyword {
	keys := counts.Keys()
	out := make([]Keyword, len(keys))
	for i, w := range keys {
		out[i] = Keyword{Word: w, Count: counts.Get(w)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Summary joins the first n sentences with single spaces. ok is false when
// there is nothing to summarise.
func Summary(sentences []string, n int) (summary string, ok bool) {
	if n >= 0 && len(sentences) > n {
		sentences = sentences[:n]
	}
	if len(sentences) == 0 {
		return "", false
	}
	return strings.Join(sentences, " "), true
}

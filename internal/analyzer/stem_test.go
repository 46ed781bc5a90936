package analyzer

import (
	"reflect"
	"testing"
)

func TestIsSimilar(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Dyson", "dyson", true},
		{"journeys", "Journey", true},
		{"running", "runs", true},
		{"journey", "James", false},
		{"vacuum", "cyclone", false},
	}
	for _, tt := range tests {
		if got := IsSimilar(tt.a, tt.b); got != tt.want {
			t.Errorf("IsSimilar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExcluder_PreservesOrder(t *testing.T) {
	c := NewCounter()
	for _, w := range []string{"engineer", "journeys", "vacuum", "dyson", "cyclone", "james"} {
		c.Add(w, 1)
	}
	c.Add("vacuum", 2)

	got := ExcludeQueryWords(c, "James Dyson Journey ")
	want := []string{"engineer", "vacuum", "cyclone"}
	if !reflect.DeepEqual(got.Keys(), want) {
		t.Errorf("keys = %v, want %v", got.Keys(), want)
	}
	if got.Get("vacuum") != 3 {
		t.Errorf("vacuum = %d, want 3", got.Get("vacuum"))
	}
}

// The single-pass excluder must agree with filtering once per query word.
func TestExcluder_MatchesPerWordFiltering(t *testing.T) {
	c := NewCounter()
	for _, w := range []string{"journeyed", "dysons", "jameses", "travel", "invention", "inventions"} {
		c.Add(w, 1)
	}
	query := "James Dyson Journey invent"

	perWord := c
	for _, q := range []string{"James", "Dyson", "Journey", "invent"} {
		perWord = perWord.Filter(func(w string) bool { return !IsSimilar(w, q) })
	}

	got := ExcludeQueryWords(c, query)
	if !reflect.DeepEqual(got.Keys(), perWord.Keys()) {
		t.Errorf("single pass = %v, per word = %v", got.Keys(), perWord.Keys())
	}
}

func TestExcluder_EmptyQuery(t *testing.T) {
	c := NewCounter()
	c.Add("vacuum", 1)
	if got := ExcludeQueryWords(c, "   "); got.Len() != 1 {
		t.Errorf("empty query should keep everything, got %v", got.Keys())
	}
}

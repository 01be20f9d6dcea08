// Package wordfreq turns transcript text into word frequency analytics.
package wordfreq

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is a word and the number of times it occurs.
type Entry struct {
	Word  string
	Count int
}

// Table counts words and remembers the order they were first seen in.
type Table struct {
	entries []Entry
	index   map[string]int
}

func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add counts one occurrence of w.
func (t *Table) Add(w string) {
	if i, ok := t.index[w]; ok {
		t.entries[i].Count++
		return
	}
	t.index[w] = len(t.entries)
	t.entries = append(t.entries, Entry{Word: w, Count: 1})
}

// Count returns the occurrences of w.
func (t *Table) Count(w string) int {
	if i, ok := t.index[w]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Len returns the number of distinct words.
func (t *Table) Len() int {
	return len(t.entries)
}

// Sum returns the total of all counts.
func (t *Table) Sum() int {
	n := 0
	for _, e := range t.entries {
		n += e.Count
	}
	return n
}

// Entries returns a copy of the entries in first-seen order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Ranked returns the entries by descending count. Equal counts keep first-seen order.
func (t *Table) Ranked() []Entry {
	es := t.Entries()
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].Count > es[j].Count
	})
	return es
}

// Analytics is the result of analyzing a transcript.
type Analytics struct {
	// Total is the number of tokens left after stopword removal.
	Total int
	Table *Table
}

// Top returns up to n of the most frequent words.
func (a *Analytics) Top(n int) []Entry {
	es := a.Table.Ranked()
	if len(es) > n {
		es = es[:n]
	}
	return es
}

// Analyze tokenizes text and counts the remaining words.
func Analyze(text string) *Analytics {
	t := NewTable()
	for _, w := range Tokenize(text) {
		t.Add(w)
	}
	return &Analytics{Total: t.Sum(), Table: t}
}

var lower = cases.Lower(language.Und)

// Tokenize lowercases text, splits it into words and drops stopwords, bare
// numbers and possessive suffixes. A word starts with a letter or digit and
// may contain apostrophes.
func Tokenize(text string) []string {
	text = strings.Map(func(r rune) rune {
		if r == '’' || r == '‘' {
			return '\''
		}
		return r
	}, lower.String(text))

	var words []string
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r) && r != '\''
	}) {
		w := strings.TrimLeft(f, "'")
		w = strings.TrimSuffix(w, "'s")
		w = strings.TrimRight(w, "'")
		if w == "" || isNumber(w) || IsStopword(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package main

import (
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeMeasure treats every rune as one unit wide, which makes wrap
// boundaries easy to reason about in tests.
func runeMeasure(s string) float64 {
	return float64(len([]rune(s)))
}

func collectPages(seq iter.Seq[Page]) []Page {
	var out []Page
	for p := range seq {
		out = append(out, p)
	}
	return out
}

func TestPaginateFilesFlowAcrossPages(t *testing.T) {
	files := []DecodedFile{
		{Name: "a.go", Content: "l1\nl2\nl3\nl4\nl5\nl6\n"},
		{Name: "b.go", Content: "m1\nm2\nm3\nm4\n"},
	}
	opts := pageOptions{LinesPerPage: 10, ContentWidth: 1000, Measure: runeMeasure}

	pages := collectPages(paginate(files, opts))
	require.Len(t, pages, 2)

	// File a contributes a delimiter plus six lines; file b starts on the
	// same page and spills over.
	assert.Equal(t, []string{
		"--- File: a.go ---",
		"l1", "l2", "l3", "l4", "l5", "l6",
		"--- File: b.go ---",
		"m1", "m2",
	}, pages[0].Lines)
	assert.Equal(t, []string{"m3", "m4"}, pages[1].Lines)
}

func TestPaginateNeverExceedsBudget(t *testing.T) {
	var files []DecodedFile
	for i := 0; i < 7; i++ {
		files = append(files, DecodedFile{Name: "f.go", Content: strings.Repeat("x\n", 13)})
	}
	opts := pageOptions{LinesPerPage: 5, ContentWidth: 1000, Measure: runeMeasure}

	var all []string
	for _, p := range collectPages(paginate(files, opts)) {
		assert.LessOrEqual(t, len(p.Lines), 5)
		all = append(all, p.Lines...)
	}
	// 7 files, delimiter + 13 lines each.
	assert.Len(t, all, 7*14)
}

func TestPaginateRestartable(t *testing.T) {
	files := []DecodedFile{{Name: "a.py", Content: "one\ntwo\nthree\n"}}
	opts := pageOptions{LinesPerPage: 2, ContentWidth: 1000, Measure: runeMeasure}
	seq := paginate(files, opts)

	first := collectPages(seq)
	second := collectPages(seq)
	assert.Equal(t, first, second, "the page sequence can be consumed more than once")
}

func TestPaginateCancelled(t *testing.T) {
	files := []DecodedFile{{Name: "a.py", Content: "one\ntwo\n"}}
	opts := pageOptions{
		LinesPerPage: 2,
		ContentWidth: 1000,
		Measure:      runeMeasure,
		Cancel:       func() bool { return true },
	}
	assert.Empty(t, collectPages(paginate(files, opts)))
}

func TestPaginateWrapsLongLines(t *testing.T) {
	files := []DecodedFile{{Name: "w", Content: "abcdefghij\n"}}
	opts := pageOptions{LinesPerPage: 100, ContentWidth: 4, Measure: runeMeasure}

	pages := collectPages(paginate(files, opts))
	require.Len(t, pages, 1)
	// The delimiter wraps too; the content lines come after it.
	lines := pages[0].Lines
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, lines[len(lines)-3:])
}

func TestNormalizeLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"tabs expanded", "\tx\n", []string{"    x"}},
		{"crlf stripped", "a\r\nb\r\n", []string{"a", "b"}},
		{"interior blanks collapsed", "a\n\n\n\nb\n", []string{"a", "", "b"}},
		{"whitespace-only is blank", "a\n   \n\t\nb\n", []string{"a", "", "b"}},
		{"edge blanks kept once", "\n\na\n\n\n", []string{"", "a", ""}},
		{"single line no newline", "solo", []string{"solo"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeLines(tc.in))
		})
	}
}

func TestLineWrapper(t *testing.T) {
	w := newLineWrapper(4, runeMeasure)
	assert.Equal(t, []string{""}, w.wrap(""))
	assert.Equal(t, []string{"ab"}, w.wrap("ab"))
	assert.Equal(t, []string{"abcd"}, w.wrap("abcd"))
	assert.Equal(t, []string{"abcd", "e"}, w.wrap("abcde"))
}

func TestLineWrapperOverWideGlyph(t *testing.T) {
	measure := func(s string) float64 {
		if s == "W" {
			return 10
		}
		return runeMeasure(s)
	}
	w := newLineWrapper(4, measure)
	assert.Equal(t, []string{"a", "W", "a"}, w.wrap("aWa"))
}

func TestLineWrapperCachesWidths(t *testing.T) {
	calls := 0
	measure := func(s string) float64 {
		calls++
		return runeMeasure(s)
	}
	w := newLineWrapper(100, measure)
	w.wrap("aaaaabbbbb")
	w.wrap("ab")
	assert.Equal(t, 2, calls, "each distinct rune is measured once")
}
